// Command dblite is a read-only reader for SQLite 3 database files. It
// answers three kinds of questions: summary metadata (.dbinfo), the set of
// user tables (.tables), and a restricted SELECT against a single table.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/thanhfphan/dblite/internal/logging"
	"github.com/thanhfphan/dblite/internal/sqlite"
)

var cli struct {
	Debug bool `help:"Enable debug logging of component entry and exit."`
	Trace bool `help:"Enable byte-level trace logging. Implies --debug."`

	Database string `arg:"" help:"Path to the SQLite database file."`
	Command  string `arg:"" help:"'.dbinfo', '.tables' or a SELECT statement."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("dblite"),
		kong.Description("Read-only reader for SQLite 3 database files."),
		kong.UsageOnError(),
	)

	log, trace := logging.New(logging.Config{Debug: cli.Debug, Trace: cli.Trace})
	defer log.Sync()

	if err := run(log, trace); err != nil {
		fmt.Fprintln(os.Stderr, "dblite:", err)
		os.Exit(1)
	}
}

func run(log, trace *zap.SugaredLogger) error {
	db, err := sqlite.New(cli.Database, sqlite.WithLogger(log), sqlite.WithTraceLogger(trace))
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case cli.Command == ".dbinfo":
		return dbinfo(db)
	case cli.Command == ".tables":
		return tables(db)
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(cli.Command)), "select"):
		return query(db, cli.Command)
	default:
		return fmt.Errorf("unknown command %q", cli.Command)
	}
}

func dbinfo(db *sqlite.DBLite) error {
	schema, err := db.ReadSchema()
	if err != nil {
		return err
	}

	fmt.Printf("database page size: %v\n", db.PageSize)
	fmt.Printf("number of tables: %v\n", len(schema.UserTableNames()))

	return nil
}

func tables(db *sqlite.DBLite) error {
	schema, err := db.ReadSchema()
	if err != nil {
		return err
	}

	names := schema.UserTableNames()
	if len(names) > 0 {
		fmt.Println(strings.Join(names, " "))
	}

	return nil
}

func query(db *sqlite.DBLite, command string) error {
	q, err := parseSelect(command)
	if err != nil {
		return err
	}

	schema, err := db.ReadSchema()
	if err != nil {
		return err
	}

	rows, err := db.Execute(q, schema)
	if err != nil {
		return err
	}

	for _, row := range rows {
		fmt.Println(strings.Join(row, "|"))
	}

	return nil
}
