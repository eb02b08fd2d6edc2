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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"

	"github.com/Anti1447/go-dicom-parser/dicom"
)

// maxPreview is the number of characters of a value printed by dump
const maxPreview = 64

func (a *app) dump(ctx context.Context, r io.Reader, w io.Writer, opts []dicom.StreamOption, logger log.Logger) (dicom.StreamResult, error) {
	d := &dumper{
		w:         w,
		enc:       dicom.ExplicitVRLittleEndian,
		threshold: int64(a.cfg.BulkDataThreshold.Bytes()),
	}
	result, err := dicom.Stream(ctx, r, a.limit(dicom.BufferValues(d)), opts...)
	if err == nil {
		err = d.err
	}
	return result, err
}

// dumper prints one line per attribute. Values are previewed once complete, so it runs behind
// BufferValues.
type dumper struct {
	w         io.Writer
	enc       dicom.Encoding
	threshold int64

	// depth is the nesting level of the data set being printed
	depth int

	// open holds one entry per open container of undefined length, true for encapsulated pixel
	// data whose items are fragments rather than data sets
	open []bool

	err error
}

func (d *dumper) SetEncoding(enc dicom.Encoding) {
	d.enc = enc
}

func (d *dumper) Header(attr dicom.Attribute) dicom.Control {
	if d.err != nil {
		return dicom.Stop
	}

	switch attr.Tag {
	case dicom.ItemDelimitationItemTag, dicom.SequenceDelimitationItemTag:
		if len(d.open) > 0 {
			d.open = d.open[:len(d.open)-1]
		}
		d.print(attr, "")
		return dicom.Skip
	case dicom.ItemTag:
		fragments := len(d.open) > 0 && d.open[len(d.open)-1]
		switch {
		case attr.HasUndefinedLength():
			d.print(attr, "")
			d.open = append(d.open, false)
			return dicom.Skip
		case fragments:
			d.print(attr, "fragment")
			return dicom.Skip
		case attr.Length == 0:
			d.print(attr, "")
			return dicom.Skip
		}
		// item of a sequence of explicit length
		d.print(attr, "")
		return dicom.Consume
	}

	vr := attr.ResolvedVR()
	switch {
	case attr.HasUndefinedLength():
		d.print(attr, "")
		d.open = append(d.open, vr != dicom.SQVR && vr != dicom.UNVR)
		return dicom.Skip
	case vr == dicom.SQVR:
		d.print(attr, "")
		if attr.Length == 0 {
			return dicom.Skip
		}
		return dicom.Consume
	case attr.Length == 0:
		d.print(attr, "")
		return dicom.Skip
	case int64(attr.Length) > d.threshold:
		d.print(attr, fmt.Sprintf("(%s skipped)", humanize.IBytes(uint64(attr.Length))))
		return dicom.Skip
	}
	return dicom.Consume
}

func (d *dumper) Value(attr dicom.Attribute, b []byte) {
	if d.err != nil {
		return
	}
	if attr.Tag == dicom.ItemTag || attr.ResolvedVR() == dicom.SQVR {
		d.nested(attr, b)
		return
	}

	value, err := dicom.DecodeValue(d.enc, attr, b)
	if err != nil {
		d.print(attr, fmt.Sprintf("(%v)", err))
		return
	}
	d.print(attr, preview(value))
}

// nested prints the content of a sequence or item of explicit length one level deeper
func (d *dumper) nested(attr dicom.Attribute, b []byte) {
	inner := &dumper{w: d.w, enc: d.enc, threshold: d.threshold, depth: d.depth + len(d.open) + 1}
	_, _, err := dicom.ParseFull(d.enc, dicom.BufferValues(inner), b, dicom.WithOffset(attr.DataPosition))
	if inner.err != nil {
		err = inner.err
	}
	if err != nil {
		d.err = fmt.Errorf("parsing %v at offset %d: %w", attr.Tag, attr.DataPosition, err)
	}
}

func (d *dumper) print(attr dicom.Attribute, value string) {
	fields := []string{strings.Repeat(">", d.depth+len(d.open)) + attr.Tag.String()}
	if attr.Tag.GroupNumber() == 0xFFFE {
		fields = append(fields, "--")
	} else {
		fields = append(fields, attr.ResolvedVR().String())
	}
	if name := attr.Tag.Name(); name != "" {
		fields = append(fields, name)
	}
	if attr.HasUndefinedLength() {
		fields = append(fields, "#undefined")
	} else {
		fields = append(fields, fmt.Sprintf("#%d", attr.Length))
	}
	fields = append(fields, fmt.Sprintf("@%d", attr.DataPosition))
	if value != "" {
		fields = append(fields, value)
	}
	if _, err := fmt.Fprintln(d.w, strings.Join(fields, " ")); err != nil && d.err == nil {
		d.err = err
	}
}

func preview(value interface{}) string {
	var s string
	switch v := value.(type) {
	case []string:
		s = "[" + strings.Join(v, "\\") + "]"
	case *dicom.BulkDataBuffer:
		s = fmt.Sprintf("<%s>", humanize.IBytes(uint64(v.Len())))
	default:
		s = fmt.Sprintf("%v", v)
	}
	if r := []rune(s); len(r) > maxPreview {
		return string(r[:maxPreview]) + "..."
	}
	return s
}
