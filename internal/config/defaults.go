package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name:     "방문자 설문",
			Timezone: "Asia/Seoul",
			Locale:   "ko",
		},
		Schema: SchemaConfig{
			Version:         1,
			Genders:         []string{"남성", "여성"},
			AgeBrackets:     []string{"7세 이하", "초등", "중등", "고등", "만 20세~24세", "만 25세 이상"},
			Purposes:        []string{"놀이", "휴식", "식사", "친목", "기타"},
			FallbackPurpose: "기타",
			LocationEnabled: false,
			Locations:       []string{},
			Aliases:         DefaultAliases(),
		},
		Storage: StorageConfig{
			Backend:           BackendCSV,
			Path:              "~/.local/share/guestbook",
			CSVFile:           "visits.csv",
			SQLiteFile:        "guestbook.db",
			SQLiteJournalMode: "wal",
			PostgresDSN:       "",
		},
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8501,
			GinMode:     "release",
			AllowOrigin: "",
		},
		Admin: AdminConfig{
			Username:        "admin",
			PasswordHash:    "",
			TokenSecret:     "",
			TokenTTLMinutes: 480,
			CookieName:      "guestbook_session",
		},
		Kiosk: KioskConfig{
			SubmitAttempts: 2,
			RetryDelayMS:   200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
