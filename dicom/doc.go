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

// Package dicom decodes the DICOM file format from input that arrives in chunks of arbitrary
// size. The package provides a low level push API and a high level API built on top of it.
//
// The low level API consists of the DataSetParser and the FileParser. Bytes are pushed to them as
// they arrive and a Handler is told about every attribute header, deciding for each one whether
// its value field is delivered, skipped or whether parsing stops. Nothing is buffered beyond a
// split header, so values of any size stream through in the chunks they arrived in. Where a
// chunk boundary falls never changes what the Handler sees.
//
// The high level API consists of Stream, which pulls chunks from an io.Reader, and Parse, which
// accumulates the attributes of a file into a DataSet with values converted to Go types. Parse
// buffers all values in memory by default; ReferenceBulkData keeps large values out of it.
package dicom
