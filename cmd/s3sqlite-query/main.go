// Command s3sqlite-query opens a read-only session against a versioned
// SQLite-over-S3 object and prints the result of one query as a table.
// It exists to exercise the full stack end to end.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"github.com/michalc/sqlite-s3-query/internal/buildinfo"
	"github.com/michalc/sqlite-s3-query/internal/logging"

	s3sqlite "github.com/michalc/sqlite-s3-query"
)

var config = new(struct {
	URL   string `long:"url" env:"S3SQLITE_URL" required:"true" description:"Versioned object URL, e.g. s3://bucket/key.sqlite?region=us-east-1"`
	SQL   string `long:"sql" env:"S3SQLITE_SQL" required:"true" description:"SQL statement to run"`
	Param []string `long:"param" description:"Positional parameter, repeatable; always bound as TEXT"`

	Log logging.Config `group:"Logging" namespace:"log" env-namespace:"LOG"`

	Version bool `long:"version" description:"Print version and exit"`
})

func main() {
	var parser = flags.NewParser(config, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		if !config.Version {
			os.Exit(1)
		}
	}

	if config.Version {
		fmt.Printf("s3sqlite-query %s (%s)\n", buildinfo.Version, buildinfo.BuildDate)
		return
	}

	logging.Init(config.Log)

	var params = make([]s3sqlite.Value, len(config.Param))
	for i, p := range config.Param {
		params[i] = p
	}

	var session, openErr = s3sqlite.Open(config.URL, s3sqlite.Options{})
	if openErr != nil {
		log.WithField("err", openErr).Fatal("opening session")
	}
	defer session.Close()

	var stream, queryErr = session.Query(config.SQL, params...)
	if queryErr != nil {
		log.WithField("err", queryErr).Fatal("running query")
	}
	defer stream.Close()

	printRows(stream)
}

func printRows(stream *s3sqlite.ResultStream) {
	var table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader(stream.Columns())

	for stream.Next() {
		var row = stream.Row()
		var cells = make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		table.Append(cells)
	}
	if err := stream.Err(); err != nil {
		log.WithField("err", err).Fatal("reading rows")
	}
	table.Render()
}
