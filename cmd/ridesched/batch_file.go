package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ridesched/internal/modules/scheduling"
)

// batchFile is the on-disk batch format. JSON input is accepted as YAML.
type batchFile struct {
	Requests []scheduling.RideRequest `yaml:"requests"`
	Drivers  []scheduling.Driver      `yaml:"drivers"`
}

func readBatch(path string, stdin io.Reader) (batchFile, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return batchFile{}, fmt.Errorf("read batch: %w", err)
	}
	var b batchFile
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return batchFile{}, fmt.Errorf("parse batch %s: %w", path, err)
	}
	return b, nil
}

func (f solveFlags) options() (scheduling.Options, error) {
	rule, err := scheduling.ParseOverlapRule(f.overlap)
	if err != nil {
		return scheduling.Options{}, err
	}
	loc, err := time.LoadLocation(f.timezone)
	if err != nil {
		return scheduling.Options{}, fmt.Errorf("timezone: %w", err)
	}
	return scheduling.Options{
		Overlap:       rule,
		EnforceBreaks: f.enforceBreaks,
		MaxNodes:      f.maxNodes,
		Location:      loc,
	}, nil
}
