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

package dicom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// DefaultChunkSize is the number of bytes Stream reads at a time
const DefaultChunkSize = 64 * 1024

// StreamResult summarizes a call to Stream
type StreamResult struct {
	// BytesRead is the number of bytes read from the io.Reader. For deflated files this counts
	// compressed bytes.
	BytesRead int64

	// Position is the stream offset where parsing ended. For deflated files data set offsets count
	// inflated bytes.
	Position int64

	// Cancelled is true if a Handler stopped the parser
	Cancelled bool

	// Encoding is the encoding of the data set, nil if it was never determined
	Encoding Encoding
}

type streamConfig struct {
	chunkSize  int
	enc        Encoding
	parserOpts []ParserOption
}

// StreamOption configures Stream
type StreamOption func(*streamConfig)

// WithChunkSize sets the size of the reads from the io.Reader. It does not change what the
// Handler sees.
func WithChunkSize(n int) StreamOption {
	return func(c *streamConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithEncoding reads a bare data set in the given encoding instead of a DICOM file with preamble
// and file meta information
func WithEncoding(enc Encoding) StreamOption {
	return func(c *streamConfig) {
		c.enc = enc
	}
}

// WithParserOptions configures the parsers used by Stream
func WithParserOptions(opts ...ParserOption) StreamOption {
	return func(c *streamConfig) {
		c.parserOpts = append(c.parserOpts, opts...)
	}
}

// Stream reads r until EOF and pushes its content through a FileParser, calling h for every
// attribute. Deflated data sets are inflated on the way. Stream stops early when h returns Stop,
// which is reported in the result and is not an error, and when ctx is done. Input ending inside
// an attribute fails with ErrTruncated.
func Stream(ctx context.Context, r io.Reader, h Handler, opts ...StreamOption) (StreamResult, error) {
	cfg := streamConfig{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	cr := &countReader{r: r}
	var p *FileParser
	if cfg.enc != nil {
		p = NewRawFileParser(cfg.enc, cfg.parserOpts...)
	} else {
		p = NewFileParser(cfg.parserOpts...)
	}

	var in io.Reader = cr
	buf := make([]byte, cfg.chunkSize)
	result := func() StreamResult {
		return StreamResult{BytesRead: cr.bytesRead, Position: p.Position(), Encoding: p.Encoding()}
	}

	for {
		if err := ctx.Err(); err != nil {
			return result(), err
		}

		n, readErr := in.Read(buf)
		if n > 0 {
			parsed, err := p.Parse(h, buf[:n])
			switch {
			case errors.Is(err, ErrDeflatedDataSet):
				// the rest of the chunk is the start of the deflated data set
				tail := append([]byte(nil), buf[parsed.BytesConsumed:n]...)
				zr := flate.NewReader(io.MultiReader(bytes.NewReader(tail), cr))
				defer zr.Close()
				in = zr
				p = NewRawFileParser(p.Encoding(), withOffset(cfg.parserOpts, p.Position())...)
				if readErr == io.EOF {
					// the inflated data set is still to be read
					readErr = nil
				}
			case err != nil:
				return result(), err
			case parsed.State == Cancelled:
				res := result()
				res.Cancelled = true
				return res, nil
			}
		}

		if readErr == io.EOF {
			if err := p.Finish(); err != nil {
				return result(), err
			}
			return result(), nil
		}
		if readErr != nil {
			return result(), fmt.Errorf("reading input: %w", readErr)
		}
	}
}

// countReader is an io.Reader that counts how many bytes read
type countReader struct {
	r         io.Reader
	bytesRead int64 // number of bytes read
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.bytesRead += int64(n)
	return n, err
}
