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
	"math"
)

// AppendHeader appends an attribute header to dst. vr is ignored in the implicit VR syntax and for
// item and delimitation tags. In the explicit VR syntax a nil vr is taken from the data dictionary.
// Use UndefinedLength for sequences, items and pixel data in encapsulated format.
func AppendHeader(dst []byte, enc Encoding, tag DataElementTag, vr *VR, length uint32) ([]byte, error) {
	order := enc.ByteOrder()
	dst = appendTag(dst, order, tag)
	if !enc.ExplicitVR() || tag.isDelimiter() {
		return appendUint32(dst, order, length), nil
	}

	if vr == nil {
		vr = tag.DictionaryVR()
	}
	code := vr.Code()
	dst = append(dst, code[:]...)
	if code.hasLongLength() {
		// reserved
		dst = append(dst, 0, 0)
		return appendUint32(dst, order, length), nil
	}
	if length > math.MaxUint16 {
		return dst, fmt.Errorf("length %d of %v element %v does not fit a 16 bit length field", length, vr, tag)
	}
	return appendUint16(dst, order, uint16(length)), nil
}

// AppendAttribute appends a data element with the given value field to dst. Values of odd length
// are padded to even length, with a space for textual VRs and 0x00 otherwise.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
func AppendAttribute(dst []byte, enc Encoding, tag DataElementTag, vr *VR, value []byte) ([]byte, error) {
	length := len(value)
	if length%2 == 1 {
		length++
	}
	if int64(length) >= UndefinedLength {
		return dst, fmt.Errorf("value of %v is too long: %d bytes", tag, len(value))
	}

	dst, err := AppendHeader(dst, enc, tag, vr, uint32(length))
	if err != nil {
		return dst, err
	}
	dst = append(dst, value...)
	if len(value)%2 == 1 {
		dst = append(dst, padding(tag, vr))
	}
	return dst, nil
}

// AppendDelimiter appends an item or sequence delimitation item to dst
func AppendDelimiter(dst []byte, enc Encoding, tag DataElementTag) []byte {
	dst = appendTag(dst, enc.ByteOrder(), tag)
	return appendUint32(dst, enc.ByteOrder(), 0)
}

// AppendPreamble appends an empty 128 byte preamble and the DICM signature to dst
func AppendPreamble(dst []byte) []byte {
	dst = append(dst, make([]byte, preambleSize)...)
	return append(dst, magic...)
}

// AppendMetaGroup appends the file meta information of a DICOM file holding the given SOP
// instance, with its data set encoded in the given transfer syntax
func AppendMetaGroup(dst []byte, sopClassUID, sopInstanceUID, transferSyntaxUID string) ([]byte, error) {
	var group []byte
	var err error
	elements := []struct {
		tag   DataElementTag
		vr    *VR
		value []byte
	}{
		{FileMetaInformationVersionTag, OBVR, []byte{0x00, 0x01}},
		{MediaStorageSOPClassUIDTag, UIVR, []byte(sopClassUID)},
		{MediaStorageSOPInstanceUIDTag, UIVR, []byte(sopInstanceUID)},
		{TransferSyntaxUIDTag, UIVR, []byte(transferSyntaxUID)},
	}
	for _, e := range elements {
		group, err = AppendAttribute(group, ExplicitVRLittleEndian, e.tag, e.vr, e.value)
		if err != nil {
			return dst, fmt.Errorf("writing meta element %v: %w", e.tag, err)
		}
	}

	dst, err = AppendAttribute(dst, ExplicitVRLittleEndian, FileMetaInformationGroupLengthTag, ULVR,
		binary.LittleEndian.AppendUint32(nil, uint32(len(group))))
	if err != nil {
		return dst, err
	}
	return append(dst, group...), nil
}

func padding(tag DataElementTag, vr *VR) byte {
	if vr == nil {
		vr = tag.DictionaryVR()
	}
	if vr.kind == textVR || vr == UTVR || vr == URVR || vr == UCVR {
		return ' '
	}
	return 0x00
}

func appendTag(dst []byte, order binary.ByteOrder, tag DataElementTag) []byte {
	dst = appendUint16(dst, order, tag.GroupNumber())
	return appendUint16(dst, order, tag.ElementNumber())
}

func appendUint16(dst []byte, order binary.ByteOrder, v uint16) []byte {
	buf := make([]byte, 2)
	order.PutUint16(buf, v)
	return append(dst, buf...)
}

func appendUint32(dst []byte, order binary.ByteOrder, v uint32) []byte {
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	return append(dst, buf...)
}
