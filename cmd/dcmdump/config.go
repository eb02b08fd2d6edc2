// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Anti1447/go-dicom-parser/dicom"
)

// Config configures dcmdump. It is read from the YAML file given with -config.file, then
// overridden by the flags set on the command line.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// ChunkSize is the size of the reads from each file
	ChunkSize datasize.ByteSize `yaml:"chunk_size"`

	// TransferSyntax is the UID of the encoding of files holding a bare data set. Files are read
	// as DICOM files with a preamble and file meta information when empty.
	TransferSyntax string `yaml:"transfer_syntax"`

	// StopAt is a tag like 7FE0,0010. Parsing stops at the first top level attribute at or after it.
	StopAt string `yaml:"stop_at"`

	// BulkDataThreshold is the size above which dump skips values instead of printing them
	BulkDataThreshold datasize.ByteSize `yaml:"bulk_data_threshold"`

	Concurrency int  `yaml:"concurrency"`
	Metrics     bool `yaml:"metrics"`
}

// RegisterFlags registers the flags of the config and sets their defaults
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.LogLevel, "log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.TextVar(&cfg.ChunkSize, "chunk-size", datasize.ByteSize(dicom.DefaultChunkSize), "Size of the reads from each file.")
	f.StringVar(&cfg.TransferSyntax, "transfer-syntax", "", "Transfer syntax UID of files holding a data set without preamble and file meta information.")
	f.StringVar(&cfg.StopAt, "stop-at", "", "Stop at the first top level attribute with a tag greater than or equal to this one, e.g. 7FE0,0010.")
	f.TextVar(&cfg.BulkDataThreshold, "bulk-data-threshold", 4*datasize.KB, "Values larger than this are not printed.")
	f.IntVar(&cfg.Concurrency, "concurrency", 4, "Number of files parsed at the same time.")
	f.BoolVar(&cfg.Metrics, "metrics", false, "Print the parser metrics after all files were processed.")
}

// Validate checks the config
func (cfg *Config) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	if cfg.ChunkSize == 0 {
		return errors.New("chunk size must be positive")
	}
	if cfg.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	if _, _, err := cfg.stopAt(); err != nil {
		return err
	}
	return nil
}

// stopAt parses StopAt. The second return value is false when no tag is configured.
func (cfg *Config) stopAt() (dicom.DataElementTag, bool, error) {
	if cfg.StopAt == "" {
		return 0, false, nil
	}
	tag, err := parseTag(cfg.StopAt)
	if err != nil {
		return 0, false, fmt.Errorf("invalid stop-at tag: %w", err)
	}
	return tag, true, nil
}

// parseTag parses a tag written as gggg,eeee with optional parentheses
func parseTag(s string) (dicom.DataElementTag, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%q is not of the form gggg,eeee", s)
	}
	group, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("group of %q: %w", s, err)
	}
	element, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("element of %q: %w", s, err)
	}
	return dicom.NewTag(uint16(group), uint16(element)), nil
}

// loadConfig reads the YAML file into cfg. Flags already set on the command line keep their value.
func loadConfig(fsys afero.Fs, filename string, cfg *Config, flags *pflag.FlagSet) error {
	set := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		set[f.Name] = f.Value.String()
	})

	b, err := afero.ReadFile(fsys, filename)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	for name, value := range set {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("applying flag %s: %w", name, err)
		}
	}
	return nil
}
