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
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/Anti1447/go-dicom-parser/dicom"
)

// fileFunc processes one opened file and writes its report to w
type fileFunc func(ctx context.Context, r io.Reader, w io.Writer, opts []dicom.StreamOption, logger log.Logger) (dicom.StreamResult, error)

// run applies fn to every file with at most cfg.Concurrency files open at a time. Reports are
// written to out in the order of files.
func (a *app) run(ctx context.Context, out io.Writer, files []string, fn fileFunc) error {
	reports := make([]bytes.Buffer, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			return a.processFile(ctx, name, &reports[i], fn)
		})
	}
	err := g.Wait()

	for i := range reports {
		if _, werr := reports[i].WriteTo(out); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if a.cfg.Metrics {
		families, err := a.reg.Gather()
		if err != nil {
			return fmt.Errorf("gathering metrics: %w", err)
		}
		return writeMetrics(out, families)
	}
	return nil
}

func (a *app) processFile(ctx context.Context, name string, w io.Writer, fn fileFunc) error {
	f, err := a.fs.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := log.With(a.logger, "file", name)
	opts := a.streamOptions(logger)

	fmt.Fprintf(w, "# %s\n", name)
	result, err := fn(ctx, f, w, opts, logger)
	if err != nil {
		level.Error(logger).Log("msg", "parsing failed", "position", result.Position, "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	level.Info(logger).Log("msg", "parsed", "bytes", result.BytesRead, "cancelled", result.Cancelled)
	return nil
}

func (a *app) streamOptions(logger log.Logger) []dicom.StreamOption {
	opts := []dicom.StreamOption{
		dicom.WithChunkSize(int(a.cfg.ChunkSize.Bytes())),
		dicom.WithParserOptions(dicom.WithLogger(logger), dicom.WithMetrics(a.metrics)),
	}
	if a.cfg.TransferSyntax != "" {
		opts = append(opts, dicom.WithEncoding(dicom.LookupEncoding(a.cfg.TransferSyntax)))
	}
	return opts
}

// limit wraps h with the configured StopAt
func (a *app) limit(h dicom.Handler) dicom.Handler {
	tag, ok, _ := a.cfg.stopAt()
	if !ok {
		return h
	}
	return dicom.StopAt(tag, h)
}
