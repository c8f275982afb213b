package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/salesreport/internal/app"
	"github.com/andresuchdata/salesreport/internal/config"
	"github.com/andresuchdata/salesreport/internal/service"
	"github.com/andresuchdata/salesreport/pkg/logger"
	"github.com/urfave/cli/v2"
)

type serviceKey struct{}

func viewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Usage: "Start date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "end", Usage: "End date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "q", Usage: "Case-insensitive search on name or branch"},
		&cli.IntFlag{Name: "limit", Usage: "Maximum rows, 0 for the configured top N, -1 for all"},
		&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
	}
}

func initService(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(c.String("log-level"))

	svc, cleanup, err := app.NewReportService(c.Context, cfg)
	if err != nil {
		return err
	}

	c.App.Metadata["cleanup"] = cleanup
	c.Context = context.WithValue(c.Context, serviceKey{}, svc)
	return nil
}

// restoreService loads the persisted report, or the feed when nothing is
// stored. Only commands that read views need it.
func restoreService(c *cli.Context) error {
	if err := reportService(c).Restore(c.Context); err != nil {
		logger.Log.Warn().Err(err).Msg("could not load persisted report")
	}
	return nil
}

func closeService(c *cli.Context) error {
	if cleanup, ok := c.App.Metadata["cleanup"].(func()); ok {
		cleanup()
	}
	return nil
}

func reportService(c *cli.Context) *service.ReportService {
	svc, _ := c.Context.Value(serviceKey{}).(*service.ReportService)
	return svc
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "salesreport",
		Usage: "Ingest sales spreadsheets and print report views",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Metadata: map[string]interface{}{},
		Before:   initService,
		After:    closeService,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a local file, a storage object or a Drive file",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "object", Usage: "Object key in the configured bucket"},
					&cli.StringFlag{Name: "drive", Usage: "Google Drive file ID"},
				},
				Action: runIngest,
			},
			{
				Name:   "refresh",
				Usage:  "Reload the published feed",
				Action: runRefresh,
			},
			{
				Name:   "reset",
				Usage:  "Clear persisted state and reload the feed when configured",
				Action: runReset,
			},
			{
				Name:   "objects",
				Usage:  "List ingestible files in the configured bucket",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "prefix", EnvVars: []string{"STORAGE_PREFIX"}}},
				Action: runListObjects,
			},
			{
				Name:  "drive-files",
				Usage: "List ingestible files in a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Usage: "Drive folder ID, root when empty", EnvVars: []string{"DRIVE_FOLDER_ID"}},
				},
				Action: runListDriveFiles,
			},
			{
				Name:      "show",
				Usage:     "Print a report view: summary, customers, products, promotions, branches, stockiest, daily, types",
				ArgsUsage: "<view>",
				Flags:     viewFlags(),
				Before:    restoreService,
				Action:    runShow,
			},
			{
				Name:      "report",
				Usage:     "Ingest a local file and print one view in a single run",
				ArgsUsage: "<path>",
				Flags: append(viewFlags(),
					&cli.StringFlag{Name: "view", Value: "summary", Usage: "View to print"},
				),
				Action: runReport,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
