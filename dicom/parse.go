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
	"context"
	"fmt"
	"io"
)

// Parse parses a DICOM file represented as an io.Reader, returning the DataSet defined by applying
// options sequentially in the order given to DataElements in the file. The file meta information
// elements are part of the returned DataSet.
//
// Value fields are buffered into their types for the VR:
// BulkDataBuffer for OW, OB, UN
// []uint32 for OL, UL, AT
// []float64 for OD, FD
// []float32 for OF, FL
// []string for UR, UT, UC and the other textual VRs
// *Sequence for SQ
// ReferenceBulkData keeps large values out of memory.
func Parse(r io.Reader, opts ...ParseOption) (*DataSet, error) {
	return ParseContext(context.Background(), r, opts...)
}

// ParseContext is Parse with a context that stops reading r when done
func ParseContext(ctx context.Context, r io.Reader, opts ...ParseOption) (*DataSet, error) {
	acc := NewAccumulator(ExplicitVRLittleEndian, opts...)

	var streamOpts []StreamOption
	for _, opt := range opts {
		streamOpts = append(streamOpts, opt.stream...)
	}

	_, err := Stream(ctx, r, acc, streamOpts...)
	if acc.Err() != nil {
		return nil, acc.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("reading data set: %w", err)
	}
	return acc.DataSet()
}
