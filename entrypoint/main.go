package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"text2phenotype.com/corpora/logger"
)

const appName = "corpora"

var (
	basePathFlag = &cli.StringFlag{
		Name:  "base-path",
		Usage: "directory holding the dataset archives (overrides CORPORA_BASE_PATH)",
	}
	configPathFlag = &cli.StringFlag{
		Name:  "config-path",
		Usage: "directory of dataset YAML definitions (overrides CORPORA_CONFIG_PATH)",
	}
	continueFlag = &cli.BoolFlag{
		Name:  "continue-on-error",
		Usage: "record malformed documents and failed samples instead of aborting",
	}
)

func newApp(out, errOut io.Writer) *cli.App {
	datasetFlags := []cli.Flag{basePathFlag, configPathFlag, continueFlag}
	return &cli.App{
		Name:      appName,
		Usage:     "ingest the MuchMore Springer corpus and validate n2c2 coreference offsets",
		Writer:    out,
		ErrWriter: errOut,
		Commands: []*cli.Command{
			{
				Name:   "datasets",
				Usage:  "list configured datasets",
				Flags:  []cli.Flag{configPathFlag},
				Action: datasetsCommand,
			},
			{
				Name:      "ingest",
				Usage:     "parse every document of a dataset and print the result summary",
				ArgsUsage: "<dataset>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write documents as JSON lines to `FILE`"},
				}, datasetFlags...),
				Action: ingestCommand,
			},
			{
				Name:      "align",
				Usage:     "print the cross-corpus alignment reports of a MuchMore dataset",
				ArgsUsage: "<dataset>",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "keys", Usage: "list exclusive keys"},
				}, datasetFlags...),
				Action: alignCommand,
			},
			{
				Name:      "coref",
				Usage:     "validate concept offsets of a coreference dataset",
				ArgsUsage: "<dataset>",
				Flags:     datasetFlags,
				Action:    corefCommand,
			},
			{
				Name:      "submit",
				Usage:     "store an ingestion task in redis and queue it",
				ArgsUsage: "<dataset>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "job", Usage: "job id the task belongs to"},
				},
				Action: submitCommand,
			},
			{
				Name:   "worker",
				Usage:  "consume ingestion tasks from the queue",
				Flags:  datasetFlags,
				Action: workerCommand,
			},
			{
				Name:  "serve",
				Usage: "serve the document parsing API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Value: "10000", EnvVars: []string{"CORPORA_REST_API_PORT"}},
				},
				Action: serveCommand,
			},
		},
	}
}

func main() {
	logger.SetupLogging()
	mainLogger := logger.NewLogger("Main")

	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		mainLogger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
