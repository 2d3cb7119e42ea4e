package config

// DefaultAliases returns legacy and alternate category labels mapped to
// their canonical values. Older kiosk builds wrote these spellings into the
// log, and hand-edited spreadsheets tend to use the short or English forms.
func DefaultAliases() map[string]string {
	return map[string]string{
		// Gender
		"남":      "남성",
		"여":      "여성",
		"male":   "남성",
		"female": "여성",
		"m":      "남성",
		"f":      "여성",

		// Age brackets
		"7세이하":       "7세 이하",
		"미취학":        "7세 이하",
		"초등학생":       "초등",
		"중학생":        "중등",
		"고등학생":       "고등",
		"만 20세 ~ 24세": "만 20세~24세",
		"만20세~24세":    "만 20세~24세",
		"20~24세":     "만 20세~24세",
		"만25세 이상":    "만 25세 이상",
		"만 25세이상":    "만 25세 이상",
		"25세 이상":     "만 25세 이상",
		"성인":         "만 25세 이상",

		// Purposes
		"놀기":   "놀이",
		"쉼":    "휴식",
		"밥":    "식사",
		"모임":   "친목",
		"그 외":  "기타",
		"etc":  "기타",
		"play": "놀이",
		"rest": "휴식",
	}
}
