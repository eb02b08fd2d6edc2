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
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DataElementTag is a unique identifier for a Data Element composed of an ordered pair
// of numbers called the group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number. Comparing two tags as integers therefore orders them by group, then element.
type DataElementTag uint32

// NewTag returns the DataElementTag (group,element)
func NewTag(group, element uint16) DataElementTag {
	return DataElementTag(uint32(group)<<16 | uint32(element))
}

// GroupNumber returns the group number component of the DataElementTag
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// Compare returns -1, 0 or +1 depending on whether t sorts before, equal to or after other.
func (t DataElementTag) Compare(other DataElementTag) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	}
	return 0
}

// IsMetaElement is true if and only if the Data Element is a file meta element
func (t DataElementTag) IsMetaElement() bool {
	return t.GroupNumber() == uint16(0x0002)
}

// IsPrivate is true if the group number is odd
func (t DataElementTag) IsPrivate() bool {
	return t.GroupNumber()%2 == 1
}

// IsGroupLength is true for group length elements (gggg,0000)
func (t DataElementTag) IsGroupLength() bool {
	return t.ElementNumber() == 0
}

// isDelimiter is true for the item, item delimitation and sequence delimitation tags which are
// encoded without a VR in every transfer syntax.
func (t DataElementTag) isDelimiter() bool {
	return t.GroupNumber() == 0xFFFE
}

func (t DataElementTag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataElement struct {
	Tag DataElementTag

	// Value Representation
	VR *VR

	// ValueField represents the field within a Data Element that contains its value(s)
	// Can be any of of the following types:
	// []string,
	// []int16,
	// []uint16,
	// []int32,
	// []uint32,
	// []float32,
	// []float64
	// []BulkDataReference
	// *BulkDataBuffer
	// *Sequence
	ValueField interface{}

	// ValueLength is equal to the length of the ValueField in bytes.
	// Can be equal to 0xFFFFFFFF to represent an undefined length:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
	ValueLength uint32
}

// StringValue returns the first value of a textual DataElement
func (e *DataElement) StringValue() (string, error) {
	strs, ok := e.ValueField.([]string)
	if !ok {
		return "", fmt.Errorf("expected []string value field for %v, got %T", e.Tag, e.ValueField)
	}
	if len(strs) == 0 {
		return "", fmt.Errorf("empty value field for %v", e.Tag)
	}
	return strs[0], nil
}

// IntValue returns the first value of a DataElement holding binary integers or integer strings
func (e *DataElement) IntValue() (int64, error) {
	switch v := e.ValueField.(type) {
	case []int16:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []uint16:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []int32:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []uint32:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []string:
		if len(v) > 0 {
			i, err := strconv.ParseInt(strings.TrimSpace(v[0]), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parsing integer string of %v: %w", e.Tag, err)
			}
			return i, nil
		}
	default:
		return 0, fmt.Errorf("expected integer value field for %v, got %T", e.Tag, e.ValueField)
	}
	return 0, fmt.Errorf("empty value field for %v", e.Tag)
}

func (e *DataElement) String() string {
	name := "??"
	if e.VR != nil {
		name = e.VR.Name
	}
	return fmt.Sprintf("%v %v #%d %v", e.Tag, name, e.ValueLength, formatValue(e.ValueField))
}

func formatValue(v interface{}) string {
	switch value := v.(type) {
	case []string:
		return "[" + strings.Join(value, "\\") + "]"
	case *BulkDataBuffer:
		return fmt.Sprintf("<%d fragment(s)>", len(value.Data()))
	case []BulkDataReference:
		return fmt.Sprintf("%v", value)
	case *Sequence:
		return fmt.Sprintf("<%d item(s)>", len(value.Items))
	default:
		return fmt.Sprintf("%v", value)
	}
}

// DataSet models a DICOM Data Set as defined
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataSet struct {
	// Elements is a map of DataElement tags to *DataElement
	Elements map[DataElementTag]*DataElement

	// Length is the item length for data sets nested in a sequence, or UndefinedLength
	Length uint32
}

func newDataSet() *DataSet {
	return &DataSet{Elements: map[DataElementTag]*DataElement{}}
}

// SortedTags returns the tags of the DataSet in ascending order
func (ds *DataSet) SortedTags() []DataElementTag {
	tags := make([]DataElementTag, 0, len(ds.Elements))
	for tag := range ds.Elements {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// SortedElements returns the DataElements of the DataSet in ascending tag order
func (ds *DataSet) SortedElements() []*DataElement {
	elems := make([]*DataElement, 0, len(ds.Elements))
	for _, tag := range ds.SortedTags() {
		elems = append(elems, ds.Elements[tag])
	}
	return elems
}

// MetaElements returns a DataSet containing only the file meta elements of ds
func (ds *DataSet) MetaElements() *DataSet {
	meta := newDataSet()
	for tag, elem := range ds.Elements {
		if tag.IsMetaElement() {
			meta.Elements[tag] = elem
		}
	}
	return meta
}

func (ds *DataSet) String() string {
	return ds.string(0)
}

func (ds *DataSet) string(indentLvl int) string {
	lines := make([]string, 0, len(ds.Elements))
	indent := strings.Repeat(">", indentLvl)
	for _, elem := range ds.SortedElements() {
		line := indent + elem.String()
		if seq, ok := elem.ValueField.(*Sequence); ok {
			line += seq.string(indentLvl)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
