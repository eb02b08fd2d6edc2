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

// ParseState tells the caller of Parser.Parse what became of the input
type ParseState int

const (
	// Partial means a prefix of a unit of work was consumed. ParseResult.Next holds the parser that
	// continues the unit and must replace the current one.
	Partial ParseState = iota

	// Incomplete means no progress is possible until more bytes are supplied. The current parser
	// stays valid.
	Incomplete

	// Completed means one attribute, header and value, was fully processed.
	Completed

	// Cancelled means a Handler returned Stop. No further input is accepted.
	Cancelled
)

func (s ParseState) String() string {
	switch s {
	case Partial:
		return "partial"
	case Incomplete:
		return "incomplete"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// ParseResult is returned by every call to Parser.Parse
type ParseResult struct {
	// BytesConsumed is the number of input bytes the parser is done with. It never exceeds the
	// length of the input. Bytes a parser needs across calls are copied, so consumed bytes never
	// have to be presented again.
	BytesConsumed int

	State ParseState

	// Next is the continuation of a Partial result and nil otherwise
	Next Parser
}

func partial(n int, next Parser) ParseResult {
	return ParseResult{n, Partial, next}
}

func incomplete(n int) ParseResult {
	return ParseResult{n, Incomplete, nil}
}

func completed(n int) ParseResult {
	return ParseResult{n, Completed, nil}
}

func cancelled(n int) ParseResult {
	return ParseResult{n, Cancelled, nil}
}

// Parser is a resumable parser. Parse consumes as much of b as it can and reports how far it got.
// A Parser may be called with an empty b at any time without changing its state. b is only
// borrowed for the duration of the call.
type Parser interface {
	Parse(h Handler, b []byte) (ParseResult, error)
}

// boundaryReporter is implemented by parsers that know whether they hold part of an attribute
type boundaryReporter interface {
	atBoundary() bool
}

// attributeParser decodes one attribute header. Headers split across calls are copied into the
// parser so the caller never has to keep the bytes around.
type attributeParser struct {
	enc      Encoding
	position int64
	metrics  *Metrics

	header   [longHeaderSize]byte
	buffered int
}

func newAttributeParser(enc Encoding, position int64, metrics *Metrics) *attributeParser {
	return &attributeParser{enc: enc, position: position, metrics: metrics}
}

func (p *attributeParser) Parse(h Handler, b []byte) (ParseResult, error) {
	consumed := 0
	window := b
	if p.buffered > 0 || !holdsHeader(p.enc, b) {
		consumed = p.fill(b)
		if !holdsHeader(p.enc, p.header[:p.buffered]) {
			return incomplete(consumed), nil
		}
		window = p.header[:p.buffered]
	}

	attr, n, err := DecodeHeader(p.enc, window, p.position)
	if err != nil {
		return incomplete(consumed), err
	}
	if p.buffered == 0 {
		consumed = n
	}

	control := h.Header(attr)
	p.metrics.observeHeader(control)
	if control == Stop {
		return cancelled(consumed), nil
	}
	if attr.valueSize() == 0 {
		return completed(consumed), nil
	}
	value := &valueParser{attr: attr, remaining: attr.valueSize(), deliver: control == Consume, metrics: p.metrics}
	return partial(consumed, value), nil
}

// fill copies bytes of b into the header buffer until the header is complete or b is exhausted
func (p *attributeParser) fill(b []byte) int {
	consumed := 0
	for len(b) > 0 {
		want, ok := HeaderLength(p.enc, p.header[:p.buffered])
		if !ok {
			// enough to size any header
			want = tagSize + vrSize
		}
		if p.buffered >= want {
			break
		}
		n := copy(p.header[p.buffered:want], b)
		p.buffered += n
		consumed += n
		b = b[n:]
	}
	return consumed
}

func (p *attributeParser) atBoundary() bool {
	return p.buffered == 0
}

func holdsHeader(enc Encoding, b []byte) bool {
	n, ok := HeaderLength(enc, b)
	return ok && len(b) >= n
}

// valueParser forwards the value field of an attribute to the Handler as input arrives. It never
// buffers: every call delivers the bytes at hand and returns itself as the continuation until the
// value is exhausted.
type valueParser struct {
	attr      Attribute
	remaining int64
	deliver   bool
	metrics   *Metrics
}

func (p *valueParser) Parse(h Handler, b []byte) (ParseResult, error) {
	if len(b) == 0 {
		return incomplete(0), nil
	}

	n := int64(len(b))
	if n > p.remaining {
		n = p.remaining
	}
	if p.deliver {
		h.Value(p.attr, b[:n])
		p.metrics.observeFragment()
	}
	p.remaining -= n

	if p.remaining == 0 {
		return completed(int(n)), nil
	}
	return partial(int(n), p), nil
}

func (p *valueParser) atBoundary() bool {
	return false
}
