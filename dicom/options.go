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

// Transform describes a transformation applied to a DataElement
type Transform func(*DataElement) (*DataElement, error)

// ParseOption configures the behavior of the Parse function and of an Accumulator.
type ParseOption struct {
	transform  Transform
	isBulkData func(*DataElement) bool
	stream     []StreamOption
}

// WithTransform returns a ParseOption that applies the given transformation to each DataElement in
// the DICOM file in the order encountered. For DataElements that contain a sequence, the transform
// is applied to nested DataElements first (i.e. transform is called on DataElements in post-order).
// If the transform returns an error, Parse will stop parsing and return an error.
// If no error is returned and a non-nil DataElement is returned, this DataElement will be added to
// the returned DataSet of Parse. If a nil DataElement is returned, this DataElement will be
// excluded from the DataSet returned from Parse.
func WithTransform(t Transform) ParseOption {
	return ParseOption{transform: t}
}

// ReferenceBulkData skips the value field of every DataElement for which bulkDataDefinition
// returns true and stores its location as []BulkDataReference instead: one reference for a native
// value, one per fragment for pixel data in encapsulated format. The DataElement given to
// bulkDataDefinition has its tag, VR and length set but no ValueField yet.
func ReferenceBulkData(bulkDataDefinition func(*DataElement) bool) ParseOption {
	return ParseOption{isBulkData: bulkDataDefinition}
}

// WithStreamOptions passes options to the Stream that reads the input of Parse
func WithStreamOptions(opts ...StreamOption) ParseOption {
	return ParseOption{stream: opts}
}

// DropGroupLengths will exclude all group length elements (gggg,0000) from the returned DataSet
var DropGroupLengths = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag.IsGroupLength() {
		return nil, nil
	}
	return element, nil
})

// DropBasicOffsetTable will exclude the basic offset table fragment from pixel data encoded using
// the encapsulated (compressed) format. For more information on the offset table and encapsulated
// formats please see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
var DropBasicOffsetTable = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag != PixelDataTag || element.ValueLength != UndefinedLength {
		return element, nil
	}
	switch value := element.ValueField.(type) {
	case *BulkDataBuffer:
		if len(value.fragments) > 0 {
			element.ValueField = NewBulkDataBuffer(value.fragments[1:]...)
		}
	case []BulkDataReference:
		if len(value) > 0 {
			element.ValueField = value[1:]
		}
	}
	return element, nil
})

// DefaultBulkDataDefinition returns true if and only if the tag corresponds to a data element
// contains that contains large non-metadata fields
func DefaultBulkDataDefinition(elem *DataElement) bool {
	// Tags in the DICOM data dictionary have wildcards (e.g. tags like (gggg,eexx), (ggxx,eeee))
	// The tag library stores the value of the tag with the x's set to '0' in hex.
	// For example the Curve Data tag is defined as (50xx,3000). The variable
	// CurveDataTag = 0x50003000. So we can check if a given tag is of the form (50xx,3000) from
	// the condition (tag & 0xFF00FFFF) == CurveDataTag.
	for _, m := range append([]uint32{0xFFFFFFFF}, wildcardMasks...) {
		switch DataElementTag(uint32(elem.Tag) & m) {
		case PixelDataProviderURLTag, AudioSampleDataTag, CurveDataTag, SpectroscopyDataTag,
			OverlayDataTag, EncapsulatedDocumentTag, FloatPixelDataTag, DoubleFloatPixelDataTag,
			PixelDataTag, WaveformDataTag:
			return true
		}
	}
	return false
}
