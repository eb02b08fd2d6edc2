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
	"encoding/binary"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
)

// DecodeValue converts the complete value field of attr to the type a DataSet holds for its VR.
// Text is decoded in the default character repertoire. Sequences are not decoded: their value
// field is a data set of its own.
func DecodeValue(enc Encoding, attr Attribute, b []byte) (interface{}, error) {
	return decodeValue(attr.ResolvedVR(), b, valueByteOrder(enc, attr.Tag), nil)
}

// valueByteOrder returns the byte order of values of the tag. The file meta information is always
// little endian.
func valueByteOrder(enc Encoding, tag DataElementTag) binary.ByteOrder {
	if tag.IsMetaElement() {
		return binary.LittleEndian
	}
	return enc.ByteOrder()
}

// decodeValue converts a complete value field to the Go type used for its VR in a DataSet.
// textCoding decodes the VRs affected by the Specific Character Set (0008,0005).
func decodeValue(vr *VR, b []byte, order binary.ByteOrder, textCoding encoding.Encoding) (interface{}, error) {
	switch vr.kind {
	case textVR:
		return readText(b, vr, textCoding, unicode.IsSpace)
	case numberBinaryVR:
		return readNumberBinary(b, vr, order)
	case bulkDataVR:
		return readBulkData(b, vr, order, textCoding)
	case uniqueIdentifierVR:
		return readText(b, vr, nil, func(r rune) bool {
			return r == 0x00 || r == ' '
		})
	case tagVR:
		return readTags(b, order), nil
	default:
		return nil, fmt.Errorf("no value conversion for vr %v", vr)
	}
}

// readTags decodes AT values. Each tag is a pair of 16 bit numbers, group first.
func readTags(b []byte, order binary.ByteOrder) []uint32 {
	ret := make([]uint32, len(b)/tagSize)
	for i := range ret {
		ret[i] = uint32(readTag(order, b[i*tagSize:]))
	}
	return ret
}

func readText(b []byte, vr *VR, textCoding encoding.Encoding, isPadding func(rune) bool) ([]string, error) {
	if len(b) == 0 {
		return []string{}, nil
	}

	valueField, err := decodeText(b, vr, textCoding)
	if err != nil {
		return nil, err
	}

	// deal with value multiplicity
	strs := strings.Split(valueField, "\\")
	for i, s := range strs {
		if vr == UTVR || vr == STVR || vr == LTVR {
			strs[i] = strings.TrimRightFunc(s, isPadding)
		} else {
			strs[i] = strings.TrimFunc(s, isPadding)
		}
	}
	return strs, nil
}

// decodeText applies the character set to the VRs whose repertoire can be extended.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.1.2.3
func decodeText(b []byte, vr *VR, textCoding encoding.Encoding) (string, error) {
	switch vr {
	case SHVR, LOVR, STVR, LTVR, PNVR, UCVR, UTVR:
	default:
		return string(b), nil
	}
	if textCoding == nil {
		textCoding = defaultCharacterRepertoire
	}
	s, err := textCoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding %v text: %w", vr, err)
	}
	return string(s), nil
}

func readNumberBinary(b []byte, vr *VR, order binary.ByteOrder) (interface{}, error) {
	var data interface{}

	switch vr {
	case SSVR:
		data = make([]int16, len(b)/2)
	case USVR:
		data = make([]uint16, len(b)/2)
	case SLVR:
		data = make([]int32, len(b)/4)
	case ULVR:
		data = make([]uint32, len(b)/4)
	case FLVR:
		data = make([]float32, len(b)/4)
	case FDVR:
		data = make([]float64, len(b)/8)
	default:
		return nil, fmt.Errorf("unknown vr: %v", vr)
	}

	if err := binary.Read(bytes.NewReader(b), order, data); err != nil {
		return nil, fmt.Errorf("binary.Read(_, _, _) => %v", err)
	}

	return data, nil
}

// readBulkData keeps OB, OW and UN values as raw bytes and decodes the other VRs of potentially
// large size. Please refer to DICOM PS3.5 Part 5 for details on UC, UR, UT value representations
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.1
func readBulkData(b []byte, vr *VR, order binary.ByteOrder, textCoding encoding.Encoding) (interface{}, error) {
	var valueField interface{}
	switch vr {
	case OBVR, OWVR, UNVR:
		return NewBulkDataBuffer(append([]byte(nil), b...)), nil
	case UCVR:
		if len(b) == 0 {
			return []string{}, nil
		}
		// UC may be padded with trailing spaces and uses the "\" to delimit multiple values
		s, err := decodeText(b, vr, textCoding)
		if err != nil {
			return nil, err
		}
		return strings.Split(s, "\\"), nil
	case URVR, UTVR:
		if len(b) == 0 {
			return []string{}, nil
		}
		// UR: Trailing spaces shall be ignored. Backslash is not allowed. Shall be in ISO 2022 IR 6
		// UT: Trailing spaces may be ignored (and are in this implementation). Backslash not allowed.
		s, err := decodeText(b, vr, textCoding)
		if err != nil {
			return nil, err
		}
		return []string{strings.TrimRightFunc(s, unicode.IsSpace)}, nil
	case OLVR:
		valueField = make([]uint32, len(b)/4)
	case ODVR:
		valueField = make([]float64, len(b)/8)
	case OFVR:
		valueField = make([]float32, len(b)/4)
	default:
		return nil, fmt.Errorf("unexpected vr found: %v", vr)
	}

	if err := binary.Read(bytes.NewReader(b), order, valueField); err != nil {
		return nil, fmt.Errorf("reading to buffer: %v", err)
	}

	return valueField, nil
}
