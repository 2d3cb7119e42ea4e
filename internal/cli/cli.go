package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve   *ServeCommand
	Submit  *SubmitCommand
	List    *ListCommand
	Show    *ShowCommand
	Stats   *StatsCommand
	Export  *ExportCommand
	Migrate *MigrateCommand
	Passwd  *PasswdCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "guestbook"
	parser.LongDescription = "Kiosk visitor survey: record visits, review and edit the log, and export reports."

	cmds := &commands{
		Serve:   &ServeCommand{globals: &globals, version: version},
		Submit:  &SubmitCommand{globals: &globals, version: version},
		List:    &ListCommand{globals: &globals, version: version},
		Show:    &ShowCommand{globals: &globals, version: version},
		Stats:   &StatsCommand{globals: &globals, version: version},
		Export:  &ExportCommand{globals: &globals, version: version},
		Migrate: &MigrateCommand{globals: &globals, version: version},
		Passwd:  &PasswdCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Run the kiosk and admin server", "Run the HTTP server for the kiosk form and the admin API.", cmds.Serve)
	parser.AddCommand("submit", "Record one visit", "Record one visit, validated like a kiosk submission.", cmds.Submit)
	parser.AddCommand("list", "List visits", "List the visits of a filtered view.", cmds.List)
	parser.AddCommand("show", "Print one visit", "Print a single visit by ID.", cmds.Show)
	parser.AddCommand("stats", "Show visit statistics", "Show the summary, time series and category breakdowns of a filtered view.", cmds.Stats)
	parser.AddCommand("export", "Export an xlsx report", "Write the filtered view, or the full log, as an xlsx workbook.", cmds.Export)
	parser.AddCommand("migrate", "Copy the log to another backend", "Copy every visit from the configured store into another storage backend.", cmds.Migrate)
	parser.AddCommand("passwd", "Hash an admin password", "Read a password from stdin and print its bcrypt hash for admin.password_hash.", cmds.Passwd)

	return parser, &globals, cmds
}

// Run is the main entry point for the guestbook CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("guestbook %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
