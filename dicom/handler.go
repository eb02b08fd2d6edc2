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

// Control is returned by a Handler for every attribute header and decides what happens to the
// value field of that attribute.
type Control int

const (
	// Skip consumes the value field without delivering it to the Handler
	Skip Control = iota

	// Consume delivers the value field to Handler.Value as its bytes become available
	Consume

	// Stop ends parsing. No value bytes of the current attribute are processed and the parser
	// refuses any further input.
	Stop
)

func (c Control) String() string {
	switch c {
	case Skip:
		return "skip"
	case Consume:
		return "consume"
	case Stop:
		return "stop"
	}
	return "unknown"
}

// Handler receives the attributes of a data set in stream order.
type Handler interface {
	// Header is called exactly once per attribute, before any of its value bytes.
	Header(attr Attribute) Control

	// Value is called for attributes whose Header returned Consume. A value split across several
	// input chunks is delivered in several calls, in order, without gaps or overlap. The slice is
	// only valid for the duration of the call and must be copied to be retained.
	Value(attr Attribute, b []byte)
}

// EncodingSetter is implemented by Handlers that decode values and so need the encoding of the data
// set. FileParser calls SetEncoding once the Transfer Syntax UID is known, before the first
// attribute of the data set.
type EncodingSetter interface {
	SetEncoding(enc Encoding)
}

func setEncoding(h Handler, enc Encoding) {
	if s, ok := h.(EncodingSetter); ok {
		s.SetEncoding(enc)
	}
}

// HandlerFuncs adapts a pair of functions to the Handler interface. A nil OnHeader consumes every
// value and a nil OnValue discards the bytes.
type HandlerFuncs struct {
	OnHeader func(attr Attribute) Control
	OnValue  func(attr Attribute, b []byte)
}

// Header calls OnHeader
func (f HandlerFuncs) Header(attr Attribute) Control {
	if f.OnHeader == nil {
		return Consume
	}
	return f.OnHeader(attr)
}

// Value calls OnValue
func (f HandlerFuncs) Value(attr Attribute, b []byte) {
	if f.OnValue != nil {
		f.OnValue(attr, b)
	}
}

// BufferValues returns a Handler that collects the fragments of every consumed value and calls
// h.Value once with the complete value field. Memory use grows with the largest consumed value,
// so h should Skip values it does not need whole. Empty values produce no Value call.
func BufferValues(h Handler) Handler {
	return &valueBuffer{h: h}
}

type valueBuffer struct {
	h   Handler
	buf []byte
}

func (b *valueBuffer) Header(attr Attribute) Control {
	b.buf = b.buf[:0]
	return b.h.Header(attr)
}

func (b *valueBuffer) SetEncoding(enc Encoding) {
	setEncoding(b.h, enc)
}

func (b *valueBuffer) Value(attr Attribute, frag []byte) {
	if len(b.buf) == 0 && int64(len(frag)) == attr.valueSize() {
		// the value arrived in one piece
		b.h.Value(attr, frag)
		return
	}
	b.buf = append(b.buf, frag...)
	if int64(len(b.buf)) == attr.valueSize() {
		b.h.Value(attr, b.buf)
		b.buf = b.buf[:0]
	}
}

// StopAt returns a Handler that stops parsing at the first top level attribute whose tag is
// greater than or equal to tag. Attributes nested in sequences of undefined length and delimitation
// items never stop the parser. StopAt(PixelDataTag, h) reads everything but the image.
func StopAt(tag DataElementTag, h Handler) Handler {
	return &stopAt{tag: tag, h: h}
}

type stopAt struct {
	tag     DataElementTag
	h       Handler
	nesting Nesting
}

func (s *stopAt) Header(attr Attribute) Control {
	if s.nesting.Observe(attr) == 0 && !attr.Tag.isDelimiter() && attr.Tag >= s.tag {
		return Stop
	}
	return s.h.Header(attr)
}

func (s *stopAt) Value(attr Attribute, b []byte) {
	s.h.Value(attr, b)
}

func (s *stopAt) SetEncoding(enc Encoding) {
	setEncoding(s.h, enc)
}

// Filter returns a Handler that skips the value of every attribute for which keep returns false
// without calling h. Attributes nested in a skipped sequence of undefined length are still
// presented to keep.
func Filter(keep func(Attribute) bool, h Handler) Handler {
	return &filter{keep: keep, h: h}
}

type filter struct {
	keep func(Attribute) bool
	h    Handler
}

func (f *filter) Header(attr Attribute) Control {
	if !f.keep(attr) {
		return Skip
	}
	return f.h.Header(attr)
}

func (f *filter) Value(attr Attribute, b []byte) {
	f.h.Value(attr, b)
}

func (f *filter) SetEncoding(enc Encoding) {
	setEncoding(f.h, enc)
}

// Nesting tracks how deep attributes are nested inside sequences, items and encapsulated pixel
// data of undefined length. Those containers are not skipped with their header: their content
// follows inline and ends with a delimitation item. Values of explicit length are opaque to
// Nesting.
type Nesting struct {
	depth int
}

// Observe returns the nesting level of attr, 0 being the top level data set. It must be called
// once for every header in stream order.
func (n *Nesting) Observe(attr Attribute) int {
	switch {
	case attr.Tag == ItemDelimitationItemTag || attr.Tag == SequenceDelimitationItemTag:
		if n.depth > 0 {
			n.depth--
		}
		return n.depth
	case attr.HasUndefinedLength():
		n.depth++
		return n.depth - 1
	}
	return n.depth
}

// Depth is the current nesting level
func (n *Nesting) Depth() int {
	return n.depth
}
