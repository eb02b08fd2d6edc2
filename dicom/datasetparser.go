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
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DataSetParser parses a data set pushed to it in chunks of any size. Chunk boundaries may fall
// anywhere, including inside attribute headers: the Handler sees the same sequence of headers and
// value bytes no matter how the stream is split.
//
// A DataSetParser is not safe for concurrent use.
type DataSetParser struct {
	enc      Encoding
	current  Parser
	offset   int64
	consumed int64
	logger   log.Logger
	metrics  *Metrics
}

// ParserOption configures a DataSetParser
type ParserOption func(*DataSetParser)

// WithOffset sets the stream offset of the first byte given to the parser. It is added to
// Attribute.DataPosition, e.g. to report positions relative to the start of a file when the data
// set follows the file meta information.
func WithOffset(offset int64) ParserOption {
	return func(p *DataSetParser) {
		p.offset = offset
	}
}

// WithLogger sets the logger. Parsers log nothing by default.
func WithLogger(logger log.Logger) ParserOption {
	return func(p *DataSetParser) {
		p.logger = logger
	}
}

// WithMetrics records the parser's work in m
func WithMetrics(m *Metrics) ParserOption {
	return func(p *DataSetParser) {
		p.metrics = m
	}
}

// NewDataSetParser returns a parser for a data set in the given encoding
func NewDataSetParser(enc Encoding, opts ...ParserOption) *DataSetParser {
	p := &DataSetParser{enc: enc, logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	p.current = p.newAttributeParser()
	return p
}

// Parse consumes b, calling h for every attribute header and value fragment found. The result is
// Completed when all of b was consumed, which says nothing about whether the data set is over;
// Incomplete when a header is split and more bytes are needed; and Cancelled when h returned Stop.
// After a Cancelled result every call fails with ErrParserCancelled.
func (p *DataSetParser) Parse(h Handler, b []byte) (ParseResult, error) {
	if p.current == nil {
		return ParseResult{}, ErrParserCancelled
	}

	consumed := 0
	remaining := b
	for len(remaining) > 0 {
		result, err := p.current.Parse(h, remaining)
		if err != nil {
			return p.observe(incomplete(consumed)), fmt.Errorf("parsing at offset %d: %w", p.Position(), err)
		}
		if result.BytesConsumed < 0 || result.BytesConsumed > len(remaining) {
			return p.observe(incomplete(consumed)), fmt.Errorf("parser consumed %d of %d bytes", result.BytesConsumed, len(remaining))
		}

		consumed += result.BytesConsumed
		p.consumed += int64(result.BytesConsumed)
		remaining = remaining[result.BytesConsumed:]

		switch result.State {
		case Cancelled:
			p.current = nil
			level.Debug(p.logger).Log("msg", "parsing cancelled by handler", "offset", p.Position())
			return p.observe(cancelled(consumed)), nil
		case Incomplete:
			return p.observe(incomplete(consumed)), nil
		case Partial:
			if result.Next == nil {
				return p.observe(incomplete(consumed)), fmt.Errorf("partial result without continuation at offset %d", p.Position())
			}
			p.current = result.Next
		case Completed:
			p.current = p.newAttributeParser()
		}
	}

	return p.observe(completed(consumed)), nil
}

// BytesConsumed is the total number of bytes consumed over all calls to Parse
func (p *DataSetParser) BytesConsumed() int64 {
	return p.consumed
}

// Position is the stream offset of the next byte the parser expects
func (p *DataSetParser) Position() int64 {
	return p.offset + p.consumed
}

// Cancelled is true once a Handler stopped the parser
func (p *DataSetParser) Cancelled() bool {
	return p.current == nil
}

// InProgress is true when the parser holds part of an attribute: a split header or a value whose
// bytes have not all arrived.
func (p *DataSetParser) InProgress() bool {
	if r, ok := p.current.(boundaryReporter); ok {
		return !r.atBoundary()
	}
	return false
}

// Finish tells the parser that no more input is coming. It returns ErrTruncated if the input
// ended inside an attribute.
func (p *DataSetParser) Finish() error {
	if p.InProgress() {
		level.Warn(p.logger).Log("msg", "input ended inside an attribute", "offset", p.Position())
		return fmt.Errorf("%w at offset %d", ErrTruncated, p.Position())
	}
	return nil
}

func (p *DataSetParser) newAttributeParser() Parser {
	return newAttributeParser(p.enc, p.Position(), p.metrics)
}

func (p *DataSetParser) observe(result ParseResult) ParseResult {
	p.metrics.observeCall(result)
	return result
}

// ParseFull parses a complete data set held in b. It returns the number of bytes consumed and
// whether the Handler stopped the parse. Since no more bytes can follow b, a data set that ends
// inside an attribute fails with ErrTruncated.
func ParseFull(enc Encoding, h Handler, b []byte, opts ...ParserOption) (int, bool, error) {
	p := NewDataSetParser(enc, opts...)
	result, err := p.Parse(h, b)
	if err != nil {
		return result.BytesConsumed, false, err
	}

	switch result.State {
	case Cancelled:
		return result.BytesConsumed, true, nil
	case Completed:
		if err := p.Finish(); err != nil {
			return result.BytesConsumed, false, err
		}
		return result.BytesConsumed, false, nil
	default:
		return result.BytesConsumed, false, fmt.Errorf("%w: parse ended %v at offset %d", ErrTruncated, result.State, p.Position())
	}
}
