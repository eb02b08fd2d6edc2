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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	nestedDataSetElement1 = &DataElement{ReferencedSOPInstanceUIDTag, UIVR, []string{"1.2.840.10008.5.1.4.1.1.4"}, 26}
	nestedDataSetElement2 = &DataElement{TargetUIDTag, UIVR, []string{"1.2.840.10008.5.1.4.1.1.5"}, 26}
	nestedSeq             = createSingletonSequence(nestedDataSetElement1, nestedDataSetElement2)
	bufferedPixelData     = &DataElement{PixelDataTag, OWVR, NewBulkDataBuffer([]byte{0x11, 0x11, 0x22, 0x22}), 4}
)

func createSingletonSequence(elements ...*DataElement) Sequence {
	ds := DataSet{Elements: map[DataElementTag]*DataElement{}}
	for _, elem := range elements {
		ds.Elements[elem.Tag] = elem
	}
	return Sequence{Items: []*DataSet{&ds}}
}

// recordedAttribute is a header seen by a recorder together with every value byte delivered for it
type recordedAttribute struct {
	Attr      Attribute
	Value     []byte
	Fragments int
}

// recorder is a Handler that records what it is given. control decides the Control returned for
// each header; by default every value is consumed.
type recorder struct {
	control    func(Attribute) Control
	attributes []recordedAttribute
	encodings  []Encoding
}

func (r *recorder) Header(attr Attribute) Control {
	r.attributes = append(r.attributes, recordedAttribute{Attr: attr})
	if r.control == nil {
		return Consume
	}
	return r.control(attr)
}

func (r *recorder) Value(attr Attribute, b []byte) {
	last := &r.attributes[len(r.attributes)-1]
	if last.Attr != attr {
		panic("value delivered for an attribute that is not the last header")
	}
	last.Value = append(last.Value, b...)
	last.Fragments++
}

func (r *recorder) SetEncoding(enc Encoding) {
	r.encodings = append(r.encodings, enc)
}

// tags returns the tags of the recorded headers in order
func (r *recorder) tags() []DataElementTag {
	tags := make([]DataElementTag, 0, len(r.attributes))
	for _, a := range r.attributes {
		tags = append(tags, a.Attr.Tag)
	}
	return tags
}

func mustAppendAttribute(t *testing.T, dst []byte, enc Encoding, tag DataElementTag, vr *VR, value []byte) []byte {
	t.Helper()
	dst, err := AppendAttribute(dst, enc, tag, vr, value)
	if err != nil {
		t.Fatalf("AppendAttribute(%v): %v", tag, err)
	}
	return dst
}

func mustAppendHeader(t *testing.T, dst []byte, enc Encoding, tag DataElementTag, vr *VR, length uint32) []byte {
	t.Helper()
	dst, err := AppendHeader(dst, enc, tag, vr, length)
	if err != nil {
		t.Fatalf("AppendHeader(%v): %v", tag, err)
	}
	return dst
}

// twoAttributeStream is a group length element followed by the file meta information version
func twoAttributeStream() []byte {
	return []byte{
		0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x01, 0x00, 'O', 'B', 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
		0x00, 0x01,
	}
}

// newTestFile returns a DICOM file with the given data set encoded in the transfer syntax
func newTestFile(t *testing.T, transferSyntaxUID string, dataSet []byte) []byte {
	t.Helper()
	b := AppendPreamble(nil)
	b, err := AppendMetaGroup(b, "1.2.840.10008.5.1.4.1.1.7", "1.2.3.4.5", transferSyntaxUID)
	if err != nil {
		t.Fatalf("AppendMetaGroup: %v", err)
	}
	return append(b, dataSet...)
}

var dataSetOpts = []cmp.Option{
	cmp.Comparer(func(a, b *VR) bool { return a == b }),
	cmp.AllowUnexported(BulkDataBuffer{}),
	cmpopts.EquateEmpty(),
}

func compareDataSets(t *testing.T, got, want *DataSet) {
	t.Helper()
	if diff := cmp.Diff(want, got, dataSetOpts...); diff != "" {
		t.Fatalf("data set mismatch (-want +got):\n%s", diff)
	}
}

// withoutMeta removes the file meta elements from ds
func withoutMeta(ds *DataSet) *DataSet {
	for tag := range ds.Elements {
		if tag.IsMetaElement() {
			delete(ds.Elements, tag)
		}
	}
	return ds
}

// sampleDataSet encodes a small image data set with a sequence of one item. With undefinedLengths
// the sequence and its item are delimited instead of having explicit lengths.
func sampleDataSet(t *testing.T, enc Encoding, undefinedLengths bool) []byte {
	t.Helper()
	item := mustAppendAttribute(t, nil, enc, ReferencedSOPInstanceUIDTag, UIVR, []byte("1.2.840.10008.5.1.4.1.1.4"))
	item = mustAppendAttribute(t, item, enc, TargetUIDTag, UIVR, []byte("1.2.840.10008.5.1.4.1.1.5"))

	b := mustAppendAttribute(t, nil, enc, SOPClassUIDTag, UIVR, []byte("1.2.840.10008.5.1.4.1.1.7"))
	if undefinedLengths {
		b = mustAppendHeader(t, b, enc, ReferencedStudySequenceTag, SQVR, UndefinedLength)
		b = mustAppendHeader(t, b, enc, ItemTag, nil, UndefinedLength)
		b = append(b, item...)
		b = AppendDelimiter(b, enc, ItemDelimitationItemTag)
		b = AppendDelimiter(b, enc, SequenceDelimitationItemTag)
	} else {
		b = mustAppendHeader(t, b, enc, ReferencedStudySequenceTag, SQVR, uint32(shortHeaderSize+len(item)))
		b = mustAppendHeader(t, b, enc, ItemTag, nil, uint32(len(item)))
		b = append(b, item...)
	}
	b = mustAppendAttribute(t, b, enc, PatientNameTag, PNVR, []byte("Doe^John"))
	b = mustAppendAttribute(t, b, enc, RowsTag, USVR, appendUint16(nil, enc.ByteOrder(), 2))
	return mustAppendAttribute(t, b, enc, PixelDataTag, OWVR, []byte{0x11, 0x11, 0x22, 0x22})
}

// sampleElements is the DataSet encoded by sampleDataSet
func sampleElements(undefinedLengths bool) *DataSet {
	item := &DataSet{
		Elements: map[DataElementTag]*DataElement{
			ReferencedSOPInstanceUIDTag: nestedDataSetElement1,
			TargetUIDTag:                nestedDataSetElement2,
		},
		Length: 68,
	}
	seqLength := uint32(76)
	if undefinedLengths {
		item.Length = UndefinedLength
		seqLength = UndefinedLength
	}

	return &DataSet{Elements: map[DataElementTag]*DataElement{
		SOPClassUIDTag:             {SOPClassUIDTag, UIVR, []string{"1.2.840.10008.5.1.4.1.1.7"}, 26},
		ReferencedStudySequenceTag: {ReferencedStudySequenceTag, SQVR, &Sequence{Items: []*DataSet{item}}, seqLength},
		PatientNameTag:             {PatientNameTag, PNVR, []string{"Doe^John"}, 8},
		RowsTag:                    {RowsTag, USVR, []uint16{2}, 2},
		PixelDataTag:               bufferedPixelData,
	}}
}
