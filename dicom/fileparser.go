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
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	preambleSize = 128
	magic        = "DICM"
	prefixSize   = preambleSize + len(magic)

	// groupLengthElementSize is the size of the File Meta Information Group Length element:
	// an explicit VR UL header and its 4 byte value
	groupLengthElementSize = shortHeaderSize + 4
)

type fileStage int

const (
	preambleStage fileStage = iota
	metaStage
	dataSetStage
)

// FileParser parses a DICOM file in the format of
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#chapter_7
// pushed to it in chunks of any size: the preamble and DICM signature, the file meta information
// in explicit VR little endian and the data set in the encoding named by the Transfer Syntax UID.
//
// Meta information attributes are given to the Handler like any other. The parser reads the
// values of the group length and the transfer syntax itself, so a Handler may skip them.
//
// The deflated transfer syntax cannot be parsed from pushed chunks. Parse returns
// ErrDeflatedDataSet once the meta information is over, having consumed none of the data set;
// Stream inflates such files.
type FileParser struct {
	stage    fileStage
	prefix   [prefixSize]byte
	buffered int

	meta        *DataSetParser
	metaHandler *metaHandler
	metaEnd     int64

	data     *DataSetParser
	enc      Encoding
	notified bool

	opts     []ParserOption
	logger   log.Logger
	consumed int64
	err      error
}

// NewFileParser returns a parser for a DICOM file starting with its preamble
func NewFileParser(opts ...ParserOption) *FileParser {
	meta := NewDataSetParser(ExplicitVRLittleEndian, withOffset(opts, int64(prefixSize))...)
	return &FileParser{
		meta:        meta,
		metaHandler: &metaHandler{},
		opts:        opts,
		logger:      meta.logger,
	}
}

// NewRawFileParser returns a parser for a data set in the given encoding that is not preceded by
// a preamble or file meta information
func NewRawFileParser(enc Encoding, opts ...ParserOption) *FileParser {
	p := &FileParser{stage: dataSetStage, opts: opts}
	p.startDataSet(enc, opts)
	return p
}

// Parse consumes b following the contract of DataSetParser.Parse. The result is Incomplete while
// the preamble or the file meta information is missing bytes.
func (p *FileParser) Parse(h Handler, b []byte) (ParseResult, error) {
	if p.err != nil {
		return ParseResult{}, p.err
	}

	consumed := 0
	for {
		var result ParseResult
		var err error
		switch p.stage {
		case preambleStage:
			result, err = p.parsePreamble(b[consumed:])
		case metaStage:
			result, err = p.parseMeta(h, b[consumed:])
		default:
			if !p.notified {
				setEncoding(h, p.enc)
				p.notified = true
			}
			result, err = p.data.Parse(h, b[consumed:])
		}
		consumed += result.BytesConsumed
		p.consumed += int64(result.BytesConsumed)

		if err != nil {
			p.err = err
			return incomplete(consumed), err
		}
		switch {
		case result.State == Cancelled:
			p.err = ErrParserCancelled
			return cancelled(consumed), nil
		case result.State == Incomplete:
			return incomplete(consumed), nil
		case p.stage == dataSetStage && result.State == Completed:
			return completed(consumed), nil
		case p.stage == dataSetStage && p.enc.Deflated():
			// the meta information announced a deflated data set
			p.err = ErrDeflatedDataSet
			return completed(consumed), fmt.Errorf("%w: %v", ErrDeflatedDataSet, p.enc.UID())
		}
	}
}

// parsePreamble buffers the 128 byte preamble and the DICM signature
func (p *FileParser) parsePreamble(b []byte) (ParseResult, error) {
	n := copy(p.prefix[p.buffered:], b)
	p.buffered += n
	if p.buffered < prefixSize {
		return incomplete(n), nil
	}
	if got := string(p.prefix[preambleSize:]); got != magic {
		return incomplete(n), fmt.Errorf("%w: %q", ErrInvalidPreamble, got)
	}

	level.Debug(p.logger).Log("msg", "read file preamble")
	p.stage = metaStage
	return partial(n, nil), nil
}

// parseMeta feeds the meta information parser up to the end of the group. The group length
// element is read on its own first since the group ends where it says.
func (p *FileParser) parseMeta(h Handler, b []byte) (ParseResult, error) {
	p.metaHandler.h = h

	consumed := 0
	for {
		end := p.metaEnd
		if end == 0 {
			end = int64(prefixSize + groupLengthElementSize)
		}
		window := b[consumed:]
		if remaining := end - p.meta.Position(); int64(len(window)) > remaining {
			window = window[:remaining]
		}

		result, err := p.meta.Parse(p.metaHandler, window)
		consumed += result.BytesConsumed
		if p.metaHandler.err != nil {
			return incomplete(consumed), p.metaHandler.err
		}
		if err != nil {
			return incomplete(consumed), fmt.Errorf("parsing file meta information: %w", err)
		}
		if result.State == Cancelled {
			return cancelled(consumed), nil
		}
		if p.meta.Position() < end {
			return incomplete(consumed), nil
		}

		if p.metaEnd == 0 {
			groupLength, err := p.metaHandler.groupLength()
			if err != nil {
				return incomplete(consumed), err
			}
			p.metaEnd = end + int64(groupLength)
			continue
		}

		if err := p.meta.Finish(); err != nil {
			return incomplete(consumed), fmt.Errorf("file meta information overruns its group length: %w", err)
		}
		uid, err := p.metaHandler.transferSyntax()
		if err != nil {
			return incomplete(consumed), err
		}
		p.stage = dataSetStage
		p.startDataSet(LookupEncoding(uid), withOffset(p.opts, p.metaEnd))
		return partial(consumed, nil), nil
	}
}

func (p *FileParser) startDataSet(enc Encoding, opts []ParserOption) {
	p.enc = enc
	p.data = NewDataSetParser(enc, opts...)
	p.logger = p.data.logger
	level.Debug(p.logger).Log("msg", "parsing data set", "transfer_syntax", enc.UID(), "offset", p.data.Position())
}

// withOffset returns a copy of opts that ends with WithOffset(offset)
func withOffset(opts []ParserOption, offset int64) []ParserOption {
	return append(append([]ParserOption{}, opts...), WithOffset(offset))
}

// Encoding returns the encoding of the data set, or nil while the file meta information has not
// been read
func (p *FileParser) Encoding() Encoding {
	return p.enc
}

// Position is the stream offset of the next byte the parser expects
func (p *FileParser) Position() int64 {
	if p.stage == dataSetStage {
		return p.data.Position()
	}
	return p.consumed
}

// Finish tells the parser that no more input is coming. It returns ErrTruncated if the input
// ended before the data set or inside one of its attributes.
func (p *FileParser) Finish() error {
	if p.stage != dataSetStage {
		level.Warn(p.logger).Log("msg", "input ended before the data set", "offset", p.Position())
		return fmt.Errorf("%w: input ended before the data set at offset %d", ErrTruncated, p.Position())
	}
	return p.data.Finish()
}

// metaHandler forwards the meta information attributes to the user Handler and keeps the values
// the FileParser needs
type metaHandler struct {
	h       Handler
	seen    bool
	forward bool

	length []byte
	syntax []byte
	err    error
}

func (m *metaHandler) Header(attr Attribute) Control {
	if !m.seen {
		m.seen = true
		if attr.Tag != FileMetaInformationGroupLengthTag || attr.Length != 4 {
			m.err = fmt.Errorf("%w: first meta element is %v", ErrMissingGroupLength, attr)
			return Stop
		}
	}

	c := m.h.Header(attr)
	if c == Stop {
		return Stop
	}
	switch attr.Tag {
	case FileMetaInformationGroupLengthTag, TransferSyntaxUIDTag:
		m.forward = c == Consume
		return Consume
	}
	m.forward = true
	return c
}

func (m *metaHandler) Value(attr Attribute, b []byte) {
	switch attr.Tag {
	case FileMetaInformationGroupLengthTag:
		m.length = append(m.length, b...)
	case TransferSyntaxUIDTag:
		m.syntax = append(m.syntax, b...)
	}
	if m.forward {
		m.h.Value(attr, b)
	}
}

func (m *metaHandler) groupLength() (uint32, error) {
	if len(m.length) != 4 {
		return 0, fmt.Errorf("%w: got %d value bytes", ErrMissingGroupLength, len(m.length))
	}
	return binary.LittleEndian.Uint32(m.length), nil
}

func (m *metaHandler) transferSyntax() (string, error) {
	uid := strings.TrimRight(string(m.syntax), "\x00 ")
	if uid == "" {
		return "", ErrMissingTransferSyntax
	}
	return uid, nil
}
