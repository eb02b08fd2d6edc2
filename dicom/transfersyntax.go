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
)

// list of transfer syntaxes obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_A
const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little Endian UID
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	// JPEGBaselineUID is the JPEG Baseline (Process 1) transfer syntax UID
	JPEGBaselineUID = "1.2.840.10008.1.2.4.50"
)

// Encoding describes how the attributes of a data set are laid out in the byte stream. It is
// selected once per data set, normally from the Transfer Syntax UID of the file meta information,
// and does not change while the data set is parsed.
type Encoding interface {
	// ByteOrder is the byte order of tags, lengths and binary values
	ByteOrder() binary.ByteOrder

	// ExplicitVR is true when attribute headers carry a 2-byte VR code
	ExplicitVR() bool

	// Deflated is true when the data set is compressed with the deflate algorithm
	Deflated() bool

	// UID is the transfer syntax UID of the encoding
	UID() string
}

// LookupEncoding returns the Encoding for a transfer syntax UID. Unknown UIDs, including those of
// compressed pixel data syntaxes, encode the data set in explicit VR little endian as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func LookupEncoding(uid string) Encoding {
	switch uid {
	case ImplicitVRLittleEndianUID:
		return ImplicitVRLittleEndian
	case ExplicitVRBigEndianUID:
		return ExplicitVRBigEndian
	case DeflatedExplicitVRLittleEndianUID:
		return DeflatedExplicitVRLittleEndian
	case ExplicitVRLittleEndianUID:
		return ExplicitVRLittleEndian
	}
	return explicitSyntax{binary.LittleEndian, false, uid}
}

const (
	vrSize  = 2
	tagSize = 4

	// shortHeaderSize is the header size of implicit VR headers and explicit VR headers with a
	// 16 bit length
	shortHeaderSize = 8

	// longHeaderSize is the header size of explicit VR headers with a 32 bit length
	longHeaderSize = 12
)

type implicitSyntax struct{}

func (implicitSyntax) ByteOrder() binary.ByteOrder {
	return binary.LittleEndian
}

func (implicitSyntax) ExplicitVR() bool {
	return false
}

func (implicitSyntax) Deflated() bool {
	return false
}

func (implicitSyntax) UID() string {
	return ImplicitVRLittleEndianUID
}

type explicitSyntax struct {
	order    binary.ByteOrder
	deflated bool
	uid      string
}

func (s explicitSyntax) ByteOrder() binary.ByteOrder {
	return s.order
}

func (s explicitSyntax) ExplicitVR() bool {
	return true
}

func (s explicitSyntax) Deflated() bool {
	return s.deflated
}

func (s explicitSyntax) UID() string {
	return s.uid
}

// The transfer syntaxes that define how a data set is encoded
var (
	ExplicitVRLittleEndian         Encoding = explicitSyntax{binary.LittleEndian, false, ExplicitVRLittleEndianUID}
	DeflatedExplicitVRLittleEndian Encoding = explicitSyntax{binary.LittleEndian, true, DeflatedExplicitVRLittleEndianUID}
	ImplicitVRLittleEndian         Encoding = implicitSyntax{}
	ExplicitVRBigEndian            Encoding = explicitSyntax{binary.BigEndian, false, ExplicitVRBigEndianUID}
)
