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

// BulkDataReference describes the location of a contiguous sequence of bytes in a file
type BulkDataReference struct {
	Reference ByteRegion
}

// ByteRegion is a contiguous sequence of bytes in a file described by an Offset and a length
type ByteRegion struct {
	Offset int64
	Length int64
}

// BulkDataBuffer holds the value field of an OB, OW or UN data element in memory. Native values
// have a single fragment. Pixel data in encapsulated format has one fragment per item, the first
// being the Basic Offset Table.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
type BulkDataBuffer struct {
	fragments [][]byte
}

// NewBulkDataBuffer returns a BulkDataBuffer holding the given fragments
func NewBulkDataBuffer(fragments ...[]byte) *BulkDataBuffer {
	if fragments == nil {
		fragments = [][]byte{}
	}
	return &BulkDataBuffer{fragments}
}

// Data returns the fragments of the buffer
func (b *BulkDataBuffer) Data() [][]byte {
	return b.fragments
}

// Len is the total number of bytes over all fragments
func (b *BulkDataBuffer) Len() int64 {
	var n int64
	for _, f := range b.fragments {
		n += int64(len(f))
	}
	return n
}

// startFragment opens a new, empty fragment that appendToFragment extends
func (b *BulkDataBuffer) startFragment(sizeHint int64) {
	b.fragments = append(b.fragments, make([]byte, 0, sizeHint))
}

func (b *BulkDataBuffer) appendToFragment(data []byte) {
	if len(b.fragments) == 0 {
		b.startFragment(int64(len(data)))
	}
	last := len(b.fragments) - 1
	b.fragments[last] = append(b.fragments[last], data...)
}
