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
	"io"
)

// Attribute is the decoded header of one data element. See
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2 for the byte
// structure of the headers.
type Attribute struct {
	Tag DataElementTag

	// VR is the code read from the header, or UnknownVRCode in the implicit VR syntax and for
	// item and delimitation headers
	VR VRCode

	// Length is the number of bytes in the value field. It never includes the header bytes and may
	// be UndefinedLength.
	Length uint32

	// DataPosition is the offset of the first value byte from the start of the stream
	DataPosition int64
}

// HasUndefinedLength is true if the value field is delimited instead of having an explicit length
func (a Attribute) HasUndefinedLength() bool {
	return a.Length == UndefinedLength
}

// ResolvedVR returns the VR of the header, or the VR of the data dictionary when the header has
// none or a malformed one
func (a Attribute) ResolvedVR() *VR {
	if !a.VR.IsUnknown() {
		if vr, err := a.VR.VR(); err == nil {
			return vr
		}
	}
	return a.Tag.DictionaryVR()
}

// valueSize is the number of bytes following the header that belong to this attribute. Values of
// undefined length are not consumed with the header; their content is parsed as attributes.
func (a Attribute) valueSize() int64 {
	if a.HasUndefinedLength() {
		return 0
	}
	return int64(a.Length)
}

func (a Attribute) String() string {
	length := fmt.Sprintf("%d", a.Length)
	if a.HasUndefinedLength() {
		length = "undefined"
	}
	return fmt.Sprintf("%v %v #%s @%d", a.Tag, a.VR, length, a.DataPosition)
}

// HeaderLength returns the size of the attribute header starting at b[0]. The second return value
// is false if b is too short to tell: explicit VR headers need the tag and VR bytes before their
// size is known.
func HeaderLength(enc Encoding, b []byte) (int, bool) {
	if len(b) < tagSize {
		return 0, false
	}
	if !enc.ExplicitVR() || readTag(enc.ByteOrder(), b).isDelimiter() {
		return shortHeaderSize, true
	}
	if len(b) < tagSize+vrSize {
		return 0, false
	}
	if (VRCode{b[4], b[5]}).hasLongLength() {
		return longHeaderSize, true
	}
	return shortHeaderSize, true
}

// DecodeHeader decodes the attribute header at the start of b. position is the offset of b[0] from
// the start of the stream and is used to compute Attribute.DataPosition. The number of header bytes
// is returned alongside the Attribute. DecodeHeader returns io.ErrUnexpectedEOF if b does not hold
// the full header; a VR code that is not a valid VR is not an error and is decoded with a 16 bit
// length.
func DecodeHeader(enc Encoding, b []byte, position int64) (Attribute, int, error) {
	n, ok := HeaderLength(enc, b)
	if !ok || len(b) < n {
		return Attribute{}, 0, io.ErrUnexpectedEOF
	}

	order := enc.ByteOrder()
	attr := Attribute{Tag: readTag(order, b)}
	switch {
	case !enc.ExplicitVR() || attr.Tag.isDelimiter():
		attr.Length = order.Uint32(b[4:8])
	case n == longHeaderSize:
		// bytes 6 and 7 are reserved
		attr.VR = VRCode{b[4], b[5]}
		attr.Length = order.Uint32(b[8:12])
	default:
		attr.VR = VRCode{b[4], b[5]}
		attr.Length = uint32(order.Uint16(b[6:8]))
	}
	attr.DataPosition = position + int64(n)

	return attr, n, nil
}

func readTag(order binary.ByteOrder, b []byte) DataElementTag {
	return NewTag(order.Uint16(b[0:2]), order.Uint16(b[2:4]))
}
