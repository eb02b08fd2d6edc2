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

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log"

	"github.com/Anti1447/go-dicom-parser/dicom"
)

func (a *app) digest(ctx context.Context, r io.Reader, w io.Writer, opts []dicom.StreamOption, logger log.Logger) (dicom.StreamResult, error) {
	d := &digester{w: w}
	result, err := dicom.Stream(ctx, r, a.limit(d), opts...)
	if err == nil {
		err = d.err
	}
	return result, err
}

// digester hashes the value of every attribute of explicit length as its fragments arrive. Values
// are never held in memory, so files of any size are digested with the memory of one read.
type digester struct {
	w      io.Writer
	h      *xxhash.Digest
	remain int64
	err    error
}

func (d *digester) Header(attr dicom.Attribute) dicom.Control {
	if d.err != nil {
		return dicom.Stop
	}
	if attr.HasUndefinedLength() {
		return dicom.Skip
	}
	if d.h == nil {
		d.h = xxhash.New()
	}
	d.h.Reset()
	d.remain = int64(attr.Length)
	if d.remain == 0 {
		d.flush(attr)
		return dicom.Skip
	}
	return dicom.Consume
}

func (d *digester) Value(attr dicom.Attribute, b []byte) {
	d.h.Write(b)
	d.remain -= int64(len(b))
	if d.remain == 0 {
		d.flush(attr)
	}
}

func (d *digester) flush(attr dicom.Attribute) {
	if _, err := fmt.Fprintf(d.w, "%v %016x\n", attr.Tag, d.h.Sum64()); err != nil && d.err == nil {
		d.err = err
	}
}
