package types

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"text2phenotype.com/corpora/logger"
)

const (
	// dataset kinds
	MuchMoreKind = "muchmore"
	CorefKind    = "coref"

	MuchMoreDataset = "muchmore"
	CorefDataset    = "n2c2_2011_coref"
)

// Archive is one archive file of a dataset, relative to the configured base path.
type Archive struct {
	Path     string      `yaml:"path" json:"path"`
	Language Language    `yaml:"language" json:"language"`
	Content  ContentType `yaml:"content" json:"content"`
}

// Expectation holds alignment counts a fresh extraction must reproduce.
type Expectation struct {
	Matched   int              `yaml:"matched" json:"matched"`
	Exclusive map[Language]int `yaml:"exclusive" json:"exclusive"`
}

type Dataset struct {
	Name           string                       `yaml:"name" json:"name"`
	FilePath       string                       `yaml:"-" json:"file_path,omitempty"`
	Kind           string                       `yaml:"kind" json:"kind"`
	LegacyEncoding string                       `yaml:"legacy_encoding" json:"legacy_encoding,omitempty"`
	Archives       []Archive                    `yaml:"archives" json:"archives"`
	Expected       map[ContentType]*Expectation `yaml:"expected" json:"expected,omitempty"`
}

// ArchivesFor returns the dataset archives holding the given content type.
func (ds Dataset) ArchivesFor(content ContentType) []Archive {
	var result []Archive
	for _, a := range ds.Archives {
		if a.Content == content {
			result = append(result, a)
		}
	}
	return result
}

func (ds Dataset) Validate() error {
	if ds.Name == "" {
		return errors.New("dataset without name")
	}
	if ds.Kind != MuchMoreKind && ds.Kind != CorefKind {
		return fmt.Errorf("dataset %s: wrong kind %q", ds.Name, ds.Kind)
	}
	if len(ds.Archives) == 0 {
		return fmt.Errorf("dataset %s: no archives", ds.Name)
	}
	for _, a := range ds.Archives {
		if a.Path == "" {
			return fmt.Errorf("dataset %s: archive without path", ds.Name)
		}
	}
	return nil
}

// DefaultDatasets describes the MuchMore Springer corpus and the n2c2 2011 coreference Task 1C.
func DefaultDatasets() []Dataset {
	return []Dataset{
		{
			Name: MuchMoreDataset,
			Kind: MuchMoreKind,
			Archives: []Archive{
				{Path: "springer_english_train_plain.tar.gz", Language: LanguageEnglish, Content: ContentPlain},
				{Path: "springer_german_train_plain.tar.gz", Language: LanguageGerman, Content: ContentPlain},
				{Path: "springer_english_train_V4.2.tar.gz", Language: LanguageEnglish, Content: ContentAnnotated},
				{Path: "springer_german_train_V4.2.tar.gz", Language: LanguageGerman, Content: ContentAnnotated},
			},
			Expected: map[ContentType]*Expectation{
				ContentPlain: {
					Matched:   6374,
					Exclusive: map[Language]int{LanguageEnglish: 1449, LanguageGerman: 1434},
				},
			},
		},
		{
			Name:           CorefDataset,
			Kind:           CorefKind,
			LegacyEncoding: "UTF-8",
			Archives: []Archive{
				{Path: "Task_1C.zip"},
			},
		},
	}
}

// LoadConfigurations reads every *.yaml dataset definition in dirPath.
func LoadConfigurations(dirPath string) ([]Dataset, error) {
	cfgLogger := logger.NewLogger("LoadConfigurations")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Dataset, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.DirEntry) {
			defer wg.Done()
			ds := Dataset{
				Name:     strings.TrimSuffix(file.Name(), ".yaml"),
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := os.ReadFile(ds.FilePath)
			if err != nil {
				cfgLogger.Err(err).Str("file", ds.FilePath).Msg("Failed to read dataset definition")
				return
			}
			if err := yaml.Unmarshal(buf, &ds); err != nil {
				cfgLogger.Err(err).Str("file", ds.FilePath).Msg("Failed to parse dataset definition")
				return
			}
			if err := ds.Validate(); err != nil {
				cfgLogger.Err(err).Str("file", ds.FilePath).Msg("Invalid dataset definition")
				return
			}
			configChan <- ds
		}(f)
	}

	wg.Wait()
	close(configChan)

	configs := make([]Dataset, 0, len(configChan))
	for ds := range configChan {
		configs = append(configs, ds)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

// FindDataset looks name up in datasets.
func FindDataset(datasets []Dataset, name string) (Dataset, bool) {
	for _, ds := range datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return Dataset{}, false
}
