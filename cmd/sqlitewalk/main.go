// Command sqlitewalk reads a SQLite3 database file and answers
// `.dbinfo`, `.tables`, and a small SELECT subset against it, without
// ever writing to the file.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattleeder/sgl/internal/engine"
)

// cli is the kong-parsed command line: a database path followed by
// either a dot-command or a full SQL statement, passed through as one
// argument by the invoking shell's quoting.
var cli struct {
	Database string `arg:"" type:"existingfile" help:"Path to the SQLite3 database file."`
	Command  string `arg:"" help:"A dot-command (.dbinfo, .tables) or a SQL SELECT statement."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("sqlitewalk"),
		kong.Description("Reads SQLite3 database files: .dbinfo, .tables, and a SELECT subset."),
	)

	if err := run(cli.Database, cli.Command, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(dbPath, command string, stdout io.Writer) error {
	e, err := engine.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open_database: %w", err)
	}
	defer e.Close()

	switch {
	case command == ".dbinfo":
		pageSize, objectCount := e.DBInfo()
		fmt.Fprintf(stdout, "database page size: %d\n", pageSize)
		fmt.Fprintf(stdout, "number of tables: %d\n", objectCount)
		return nil
	case command == ".tables":
		names := e.Tables()
		fmt.Fprint(stdout, strings.Join(names, " ")+" ")
		return nil
	default:
		return e.Run(command, stdout)
	}
}
