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
	"reflect"
	"testing"

	"golang.org/x/text/encoding"
)

func TestDecodeValue_text(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []byte
		vr       *VR
		expected []string
	}{
		{
			"trailing space, vm = 1",
			[]byte("ABC "),
			AEVR,
			[]string{"ABC"},
		},
		{
			"no trailing space, vm = 1",
			[]byte("ABCD"),
			CSVR,
			[]string{"ABCD"},
		},
		{
			"trailing space vm > 1",
			[]byte("ABC\\DEF "),
			AEVR,
			[]string{"ABC", "DEF"},
		},
		{
			"trailing nulls are used for UI VRs",
			[]byte("1.2.840.10008.1.2\x00"),
			UIVR,
			[]string{"1.2.840.10008.1.2"},
		},
		{
			"multiple trailing spaces are not significant",
			[]byte("DERIVED \\SECONDARY\\OTHER  "),
			AEVR,
			[]string{"DERIVED", "SECONDARY", "OTHER"},
		},
		{
			"trailing whitespace characters are removed",
			[]byte("ABC\r\r\n "),
			LOVR,
			[]string{"ABC"},
		},
		{
			"leading whitespaces are removed for LOVR",
			[]byte("\r\n ABC"),
			LOVR,
			[]string{"ABC"},
		},
		{
			"leading whitespaces are not removed on ST",
			[]byte(" ABC"),
			STVR,
			[]string{" ABC"},
		},
		{
			"leading whitespaces are not removed for LT",
			[]byte(" ABC"),
			LTVR,
			[]string{" ABC"},
		},
		{
			"leading whitespaces are not removed for UT",
			[]byte(" ABC\r\n "),
			UTVR,
			[]string{" ABC"},
		},
		{
			"backslashes do not split UT",
			[]byte("A\\B "),
			UTVR,
			[]string{"A\\B"},
		},
		{
			"UC values are split",
			[]byte("ABC\\DEF"),
			UCVR,
			[]string{"ABC", "DEF"},
		},
		{
			"trailing spaces are removed from UR",
			[]byte("http://example.com "),
			URVR,
			[]string{"http://example.com"},
		},
		{
			"test length 0",
			[]byte{},
			LOVR,
			[]string{},
		},
		{
			"empty UT",
			[]byte{},
			UTVR,
			[]string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := decodeValue(tc.vr, tc.bytes, binary.LittleEndian, nil)
			if err != nil {
				t.Fatalf("decodeValue: => %v", err)
			}
			if !reflect.DeepEqual(result, tc.expected) {
				t.Fatalf("got %q, want %q", result, tc.expected)
			}
		})
	}
}

func TestDecodeValue_characterSet(t *testing.T) {
	tests := []struct {
		name  string
		terms []string
		vr    *VR
		in    []byte
		want  []string
	}{
		{
			"default repertoire",
			nil,
			PNVR,
			[]byte("Doe^John"),
			[]string{"Doe^John"},
		},
		{
			"latin 1",
			[]string{"ISO_IR 100"},
			PNVR,
			[]byte{'R', 0xE9, 'n', 'e'},
			[]string{"R\u00e9ne"},
		},
		{
			"cyrillic",
			[]string{"ISO_IR 144"},
			LOVR,
			[]byte{0xB0},
			[]string{"\u0410"},
		},
		{
			"utf-8",
			[]string{"ISO_IR 192"},
			STVR,
			[]byte("Ren\xc3\xa9"),
			[]string{"Ren\u00e9"},
		},
		{
			"code extension after an empty first value",
			[]string{"", "ISO 2022 IR 100"},
			SHVR,
			[]byte{0xE9},
			[]string{"\u00e9"},
		},
		{
			"character set does not apply to CS",
			[]string{"ISO_IR 192"},
			CSVR,
			[]byte("ABC"),
			[]string{"ABC"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			coding, err := characterSet(tc.terms)
			if err != nil {
				t.Fatalf("characterSet(%q) => %v", tc.terms, err)
			}
			got, err := decodeValue(tc.vr, tc.in, binary.LittleEndian, coding)
			if err != nil {
				t.Fatalf("decodeValue: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCharacterSet_unknownTerm(t *testing.T) {
	if _, err := characterSet([]string{"ISO_IR 999"}); err == nil {
		t.Fatalf("expected error to be returned")
	}
}

func TestCharacterSet_default(t *testing.T) {
	for _, terms := range [][]string{nil, {}, {""}} {
		coding, err := characterSet(terms)
		if err != nil {
			t.Fatalf("characterSet(%q) => %v", terms, err)
		}
		if coding != encoding.Encoding(defaultCharacterRepertoire) {
			t.Fatalf("characterSet(%q) = %v, want the default repertoire", terms, coding)
		}
	}
}

func TestDecodeValue_integers(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []byte
		vr       *VR
		endian   binary.ByteOrder
		expected interface{}
	}{
		{
			"unsigned short, little endian, vm > 1",
			[]byte{0xAB, 0xCD, 0x12, 0x34},
			USVR,
			binary.LittleEndian,
			[]uint16{0xCDAB, 0x3412},
		},
		{
			"unsigned short, big endian, vm > 1",
			[]byte{0xAB, 0xCD, 0x12, 0x34},
			USVR,
			binary.BigEndian,
			[]uint16{0xABCD, 0x1234},
		},
		{
			"signed short",
			[]byte{0xFF, 0xFF},
			SSVR,
			binary.LittleEndian,
			[]int16{-1},
		},
		{
			"signed long, big endian",
			[]byte{0xFF, 0xFF, 0xFF, 0xFE},
			SLVR,
			binary.BigEndian,
			[]int32{-2},
		},
		{
			"unsigned long",
			[]byte{0xCA, 0x00, 0x00, 0x00},
			ULVR,
			binary.LittleEndian,
			[]uint32{202},
		},
		{
			"other long",
			[]byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00},
			OLVR,
			binary.LittleEndian,
			[]uint32{1, 2},
		},
		{
			"attribute tags, little endian",
			[]byte{0x02, 0x00, 0x10, 0x00},
			ATVR,
			binary.LittleEndian,
			[]uint32{0x00020010},
		},
		{
			"attribute tags, big endian",
			[]byte{0x00, 0x02, 0x00, 0x10},
			ATVR,
			binary.BigEndian,
			[]uint32{0x00020010},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := decodeValue(tc.vr, tc.bytes, tc.endian, nil)
			if err != nil {
				t.Fatalf("decodeValue(_, _, _, _) => %v", err)
			}
			if !reflect.DeepEqual(result, tc.expected) {
				t.Fatalf("got %v, want %v", result, tc.expected)
			}
		})
	}
}

func TestDecodeValue_float(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []byte
		vr       *VR
		endian   binary.ByteOrder
		expected interface{}
	}{
		{
			"32-bit float, big endian",
			[]byte{0x3F, 0xC0, 0x00, 0x00},
			FLVR,
			binary.BigEndian,
			[]float32{1.5},
		},
		{
			"32-bit float, little endian",
			[]byte{0x00, 0x00, 0xC0, 0x3F},
			FLVR,
			binary.LittleEndian,
			[]float32{1.5},
		},
		{
			"32-bit float, little endian, vm > 1",
			[]byte{0x00, 0x00, 0xC0, 0x3F, 0x00, 0x00, 0xC0, 0x3F},
			FLVR,
			binary.LittleEndian,
			[]float32{1.5, 1.5},
		},
		{
			"other float",
			[]byte{0x00, 0x00, 0xC0, 0x3F},
			OFVR,
			binary.LittleEndian,
			[]float32{1.5},
		},
		{
			"64-bit float, little endian",
			[]byte{0, 0, 0, 0, 0, 0, 0xF8, 0x3F},
			FDVR,
			binary.LittleEndian,
			[]float64{1.5},
		},
		{
			"other double",
			[]byte{0x3F, 0xF8, 0, 0, 0, 0, 0, 0},
			ODVR,
			binary.BigEndian,
			[]float64{1.5},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := decodeValue(tc.vr, tc.bytes, tc.endian, nil)
			if err != nil {
				t.Fatalf("decodeValue(_, _, _, _) => %v", err)
			}
			if !reflect.DeepEqual(result, tc.expected) {
				t.Fatalf("got %v, want %v", result, tc.expected)
			}
		})
	}
}

func TestDecodeValue_byteSequence(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x00}
	for _, vr := range []*VR{OBVR, OWVR, UNVR} {
		result, err := decodeValue(vr, in, binary.LittleEndian, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		buffer, ok := result.(*BulkDataBuffer)
		if !ok {
			t.Fatalf("%v: got %T, want %T", vr, result, buffer)
		}
		if !reflect.DeepEqual(buffer.Data(), [][]byte{in}) {
			t.Fatalf("%v: got %v, want %v", vr, buffer.Data(), [][]byte{in})
		}
	}

	// the value outlives the input
	result, _ := decodeValue(OBVR, in, binary.LittleEndian, nil)
	in[0] = 0xFF
	if got := result.(*BulkDataBuffer).Data()[0][0]; got != 0x01 {
		t.Fatalf("decoded value shares memory with the input")
	}
}

func TestDecodeValue_sequence(t *testing.T) {
	if _, err := decodeValue(SQVR, []byte{}, binary.LittleEndian, nil); err == nil {
		t.Fatalf("expected error to be returned")
	}
}

func TestDecodeValue_exported(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoding
		attr Attribute
		in   []byte
		want interface{}
	}{
		{
			"VR from the header",
			ExplicitVRBigEndian,
			Attribute{Tag: RowsTag, VR: SSVR.Code(), Length: 2},
			[]byte{0xFF, 0xFE},
			[]int16{-2},
		},
		{
			"VR from the dictionary",
			ImplicitVRLittleEndian,
			Attribute{Tag: RowsTag, Length: 2},
			[]byte{0x02, 0x00},
			[]uint16{2},
		},
		{
			"meta elements are little endian",
			ExplicitVRBigEndian,
			Attribute{Tag: FileMetaInformationGroupLengthTag, VR: ULVR.Code(), Length: 4},
			[]byte{0x10, 0x00, 0x00, 0x00},
			[]uint32{16},
		},
		{
			"malformed VR codes fall back to the dictionary",
			ExplicitVRLittleEndian,
			Attribute{Tag: PatientNameTag, VR: VRCode{'z', '!'}, Length: 4},
			[]byte("Doe "),
			[]string{"Doe"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeValue(tc.enc, tc.attr, tc.in)
			if err != nil {
				t.Fatalf("DecodeValue => %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
