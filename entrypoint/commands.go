package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/streadway/amqp"
	"github.com/urfave/cli/v2"
	"text2phenotype.com/corpora/align"
	"text2phenotype.com/corpora/api"
	"text2phenotype.com/corpora/ingest"
	"text2phenotype.com/corpora/logger"
	"text2phenotype.com/corpora/rmq"
	"text2phenotype.com/corpora/tasks"
	"text2phenotype.com/corpora/types"
	"text2phenotype.com/corpora/utils"
	"text2phenotype.com/corpora/worker"
)

const workerRestartDelay = 5 * time.Second

// readConfig reads the environment and applies command line overrides.
func readConfig(c *cli.Context) (ingest.Config, error) {
	cfg, err := ingest.ReadConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}
	if c.IsSet(basePathFlag.Name) {
		cfg.BasePath = c.String(basePathFlag.Name)
	}
	if c.IsSet(configPathFlag.Name) {
		cfg.ConfigPath = c.String(configPathFlag.Name)
	}
	if c.IsSet(continueFlag.Name) {
		cfg.ContinueOnError = c.Bool(continueFlag.Name)
	}
	return cfg, nil
}

func lookupDataset(cfg ingest.Config, name string) (types.Dataset, error) {
	if name == "" {
		return types.Dataset{}, errors.New("dataset name is required")
	}
	datasets, err := cfg.Datasets()
	if err != nil {
		return types.Dataset{}, err
	}
	ds, ok := types.FindDataset(datasets, name)
	if !ok {
		return types.Dataset{}, fmt.Errorf("unknown dataset %q", name)
	}
	return ds, nil
}

// runDataset resolves the dataset named by the first argument and ingests it into sink.
func runDataset(c *cli.Context, kind string, sink ingest.Sink) (*ingest.Result, error) {
	cfg, err := readConfig(c)
	if err != nil {
		return nil, err
	}
	ds, err := lookupDataset(cfg, c.Args().First())
	if err != nil {
		return nil, err
	}
	if kind != "" && ds.Kind != kind {
		return nil, fmt.Errorf("dataset %s is of kind %s, not %s", ds.Name, ds.Kind, kind)
	}
	return ingest.New(cfg).Run(c.Context, ds, sink)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func datasetsCommand(c *cli.Context) error {
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	datasets, err := cfg.Datasets()
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, datasets)
}

func ingestCommand(c *cli.Context) error {
	sink := ingest.Discard
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		sink = ingest.NewJSONLinesSink(f)
	}

	result, runErr := runDataset(c, "", sink)
	if result != nil {
		if err := printJSON(c.App.Writer, result); err != nil {
			return err
		}
	}
	return runErr
}

type alignOutput struct {
	align.Summary
	ExclusiveA []string `json:"exclusive_a,omitempty"`
	ExclusiveB []string `json:"exclusive_b,omitempty"`
}

func alignCommand(c *cli.Context) error {
	result, runErr := runDataset(c, types.MuchMoreKind, ingest.Discard)
	if result == nil {
		return runErr
	}
	output := make([]alignOutput, 0, len(result.Reports))
	for _, report := range result.Reports {
		o := alignOutput{Summary: report.Summary()}
		if c.Bool("keys") {
			o.ExclusiveA = report.ExclusiveA
			o.ExclusiveB = report.ExclusiveB
		}
		output = append(output, o)
	}
	if err := printJSON(c.App.Writer, output); err != nil {
		return err
	}
	return runErr
}

type corefOutput struct {
	Dataset  string           `json:"dataset"`
	Samples  int              `json:"samples"`
	Concepts int              `json:"concepts"`
	Failures []ingest.Failure `json:"failures,omitempty"`
}

func corefCommand(c *cli.Context) error {
	result, runErr := runDataset(c, types.CorefKind, ingest.Discard)
	if result == nil {
		return runErr
	}
	err := printJSON(c.App.Writer, corefOutput{
		Dataset:  result.Dataset,
		Samples:  result.Samples,
		Concepts: result.Concepts,
		Failures: result.Failures,
	})
	if err != nil {
		return err
	}
	return runErr
}

// taskKey derives the redis key of a submitted task.
func taskKey(dataset, jobID string, now time.Time) string {
	return strconv.FormatUint(utils.HashString(dataset+"/"+jobID+"/"+now.UTC().Format(time.RFC3339Nano)), 16)
}

func submitCommand(c *cli.Context) error {
	dataset := c.Args().First()
	if dataset == "" {
		return errors.New("dataset name is required")
	}
	jobID := c.String("job")
	redisKey := taskKey(dataset, jobID, time.Now())

	taskClient, err := tasks.NewClient()
	if err != nil {
		return err
	}
	defer taskClient.Close()
	if err := taskClient.Ingests.Submit(redisKey, dataset, jobID); err != nil {
		return err
	}

	rmqClient, err := rmq.NewClient()
	if err != nil {
		return err
	}
	defer rmqClient.Close()
	body, err := json.Marshal(worker.Message{WorkType: "ingest", RedisKey: redisKey, Sender: appName})
	if err != nil {
		return err
	}
	if err := rmqClient.Submit(amqp.Publishing{ContentType: "application/json", Body: body}); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, redisKey)
	return err
}

func workerCommand(c *cli.Context) error {
	log := logger.NewLogger("Main")
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	ppln := newPipeline(ingest.New(cfg))

	log.Info().Msg("Start corpora worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			return fmt.Errorf("could not initialize RMQ worker: %w", err)
		}
		if err = rmqWorker.StartWorker(); err != nil {
			log.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
		}
		select {
		case <-c.Context.Done():
			return c.Context.Err()
		case <-time.After(workerRestartDelay):
		}
	}
}

func serveCommand(c *cli.Context) error {
	log := logger.NewLogger("Main")
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	host := fmt.Sprintf(":%s", c.String("port"))
	log.Info().Msgf("REST API on %s", host)
	return http.ListenAndServe(host, api.NewMux(ingest.New(cfg)))
}

// newPipeline adapts an ingester to the worker, resolving dataset names against its configuration.
func newPipeline(in *ingest.Ingester) worker.Pipeline {
	return func(ctx context.Context, dataset string, sink ingest.Sink) (*ingest.Result, error) {
		ds, err := lookupDataset(in.Config(), dataset)
		if err != nil {
			return nil, err
		}
		return in.Run(ctx, ds, sink)
	}
}
