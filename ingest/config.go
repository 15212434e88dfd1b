package ingest

import (
	"github.com/kelseyhightower/envconfig"
	"text2phenotype.com/corpora/types"
)

type Config struct {
	LegacyEncoding  string `envconfig:"CORPORA_LEGACY_ENCODING" default:"ISO-8859-1"`
	OutputEncoding  string `envconfig:"CORPORA_OUTPUT_ENCODING" default:"UTF-8"`
	BasePath        string `envconfig:"CORPORA_BASE_PATH" default:"."`
	ConfigPath      string `envconfig:"CORPORA_CONFIG_PATH" default:""`
	ContinueOnError bool   `envconfig:"CORPORA_CONTINUE_ON_ERROR" default:"false"`
}

func ReadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Datasets returns the definitions in ConfigPath, or the built-in ones when it is empty.
func (cfg Config) Datasets() ([]types.Dataset, error) {
	if cfg.ConfigPath == "" {
		return types.DefaultDatasets(), nil
	}
	return types.LoadConfigurations(cfg.ConfigPath)
}
