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
	"strings"

	"golang.org/x/text/encoding"
)

// Sequence models a DICOM sequence
type Sequence struct {
	Items []*DataSet
}

func (seq *Sequence) String() string {
	return seq.string(0)
}

func (seq *Sequence) string(indentLvl int) string {
	lines := make([]string, 0)
	for _, obj := range seq.Items {
		lines = append(lines, obj.string(indentLvl+1))
	}
	return "\n" + strings.Join(lines, "\n")
}

func (seq *Sequence) append(dataSet *DataSet) {
	seq.Items = append(seq.Items, dataSet)
}

type containerKind int

const (
	// itemContainer collects the elements of a data set: the top level one or a sequence item
	itemContainer containerKind = iota

	// sequenceContainer collects the items of a sequence
	sequenceContainer

	// fragmentsContainer collects the items of pixel data in encapsulated format
	fragmentsContainer
)

// container is an open data set, sequence or encapsulated pixel data element being filled by an
// Accumulator. Containers of undefined length stay open until their delimitation item is seen.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
type container struct {
	kind containerKind

	// element is the sequence or pixel data element that owns the container
	element *DataElement

	dataSet   *DataSet
	seq       *Sequence
	fragments *BulkDataBuffer
	refs      []BulkDataReference

	// coding decodes text in this container. Items inherit it from their parents and may
	// replace it with their own Specific Character Set.
	coding encoding.Encoding
}

func newItemContainer(length uint32, coding encoding.Encoding) *container {
	ds := newDataSet()
	ds.Length = length
	return &container{kind: itemContainer, dataSet: ds, coding: coding}
}

func newSequenceContainer(element *DataElement, coding encoding.Encoding) *container {
	return &container{
		kind:    sequenceContainer,
		element: element,
		seq:     &Sequence{Items: []*DataSet{}},
		coding:  coding,
	}
}

func newFragmentsContainer(element *DataElement, referenced bool, coding encoding.Encoding) *container {
	c := &container{kind: fragmentsContainer, element: element, coding: coding}
	if referenced {
		c.refs = []BulkDataReference{}
	} else {
		c.fragments = NewBulkDataBuffer()
	}
	return c
}

// addFragment appends one encapsulated fragment, or its reference when the pixel data is
// referenced rather than buffered
func (c *container) addFragment(attr Attribute, b []byte) {
	if c.refs != nil {
		c.refs = append(c.refs, BulkDataReference{ByteRegion{attr.DataPosition, int64(attr.Length)}})
		return
	}
	c.fragments.startFragment(int64(len(b)))
	c.fragments.appendToFragment(b)
}

// close sets the value of the owning element from the collected content
func (c *container) close() *DataElement {
	switch c.kind {
	case sequenceContainer:
		c.element.ValueField = c.seq
	case fragmentsContainer:
		if c.refs != nil {
			c.element.ValueField = c.refs
		} else {
			c.element.ValueField = c.fragments
		}
	}
	return c.element
}
