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

import "errors"

var (
	// ErrTruncated is returned when the input ends in the middle of an attribute
	ErrTruncated = errors.New("dicom: input ended inside an attribute")

	// ErrParserCancelled is returned when a parser is used after a Handler stopped it. It is never
	// retryable.
	ErrParserCancelled = errors.New("dicom: parse called on a cancelled parser")

	// ErrInvalidPreamble is returned when the DICM signature does not follow the 128 byte preamble
	ErrInvalidPreamble = errors.New("dicom: wrong DICOM signature")

	// ErrMissingGroupLength is returned when the file meta information does not start with the
	// File Meta Information Group Length (0002,0000)
	ErrMissingGroupLength = errors.New("dicom: file meta information group length not found")

	// ErrMissingTransferSyntax is returned when the file meta information has no
	// Transfer Syntax UID (0002,0010)
	ErrMissingTransferSyntax = errors.New("dicom: transfer syntax not found")

	// ErrDeflatedDataSet is returned by FileParser once the file meta information announces the
	// deflated transfer syntax. The bytes following the meta information must be inflated before
	// they can be parsed, which Stream does.
	ErrDeflatedDataSet = errors.New("dicom: data set is deflated")
)
