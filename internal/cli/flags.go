package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	EnvFile string `long:"env-file" description:"Path to a .env file with GUESTBOOK_* overrides" default:".env"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// FilterFlags select a view of the log. Omitting a category flag selects
// every value; passing it once with an empty value (--gender=) selects
// none.
type FilterFlags struct {
	Start      string   `long:"start" description:"First day to include (YYYY-MM-DD)"`
	End        string   `long:"end" description:"Last day to include (YYYY-MM-DD)"`
	Gender     []string `long:"gender" description:"Gender to include (repeatable)"`
	AgeBracket []string `long:"age-bracket" description:"Age bracket to include (repeatable)"`
	Purpose    []string `long:"purpose" description:"Purpose to include (repeatable)"`
	Location   []string `long:"location" description:"Location to include (repeatable)"`
}

// ServeCommand runs the kiosk and admin HTTP server.
type ServeCommand struct {
	Host     string `long:"host" description:"Override listen host"`
	Port     int    `long:"port" description:"Override listen port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// SubmitCommand records one visit from the command line.
type SubmitCommand struct {
	Gender     string `long:"gender" description:"Visitor gender (required)"`
	AgeBracket string `long:"age-bracket" description:"Visitor age bracket (required)"`
	Purpose    string `long:"purpose" description:"Purpose of the visit (required when the schema has purposes)"`
	Location   string `long:"location" description:"Location of the kiosk (required when the schema collects locations)"`

	globals *GlobalFlags
	version string
}

// ListCommand prints the visits of a filtered view.
type ListCommand struct {
	FilterFlags
	Limit  int `long:"limit" description:"Maximum rows to print (0 for all)" default:"50"`
	Offset int `long:"offset" description:"Skip first N rows" default:"0"`

	globals *GlobalFlags
	version string
}

// ShowCommand prints one visit.
type ShowCommand struct {
	ID     string `long:"id" description:"Visit ID (required)"`
	Format string `long:"format" description:"Output format: full | csv | json" default:"full"`

	globals *GlobalFlags
	version string
}

// StatsCommand prints the dashboard aggregates of a filtered view.
type StatsCommand struct {
	FilterFlags
	Period string `long:"period" description:"Time series to print: daily | weekly | monthly | none" default:"daily"`

	globals *GlobalFlags
	version string
}

// ExportCommand writes the xlsx workbook of a filtered view or of the
// full log.
type ExportCommand struct {
	FilterFlags
	All bool   `long:"all" description:"Export the full log, ignoring filters"`
	Out string `long:"out" short:"o" description:"Output file (default visits-<date>.xlsx)"`

	globals *GlobalFlags
	version string
}

// MigrateCommand copies every visit from the configured store into
// another backend.
type MigrateCommand struct {
	To    string `long:"to" description:"Destination backend: csv | sqlite | postgres (required)"`
	Path  string `long:"path" description:"Destination file for csv or sqlite"`
	DSN   string `long:"dsn" description:"Destination DSN for postgres"`
	Force bool   `long:"force" description:"Overwrite a non-empty destination without asking"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}

// PasswdCommand prints a bcrypt hash for admin.password_hash.
type PasswdCommand struct {
	globals *GlobalFlags
	version string
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}
