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

import "fmt"

// Accumulator is a Handler that builds a DataSet from the attributes it is given.
//
// Values are converted to the types documented on DataElement.ValueField. In the implicit VR
// syntax the VR comes from the data dictionary, UN if the tag is unknown. Sequences and items of
// undefined length are assembled from the item and delimitation headers that follow them in the
// stream; the value field of sequences and items of explicit length is parsed on its own once it
// has been received. Pixel data in encapsulated format becomes a BulkDataBuffer with one fragment
// per item.
//
// Handler calls do not return errors, so the Accumulator stops the parser on the first error and
// reports it from DataSet and Err.
type Accumulator struct {
	enc   Encoding
	opts  []ParseOption
	stack []*container
	err   error

	buffered Handler
}

// NewAccumulator returns an Accumulator for a data set in the given encoding. Used with a
// FileParser, the encoding is replaced by the one of the file once it is known.
func NewAccumulator(enc Encoding, opts ...ParseOption) *Accumulator {
	return newAccumulator(enc, opts, newItemContainer(0, defaultCharacterRepertoire))
}

func newAccumulator(enc Encoding, opts []ParseOption, root *container) *Accumulator {
	a := &Accumulator{enc: enc, opts: opts, stack: []*container{root}}
	a.buffered = BufferValues(HandlerFuncs{OnHeader: a.header, OnValue: a.value})
	return a
}

// Header implements Handler
func (a *Accumulator) Header(attr Attribute) Control {
	return a.buffered.Header(attr)
}

// Value implements Handler
func (a *Accumulator) Value(attr Attribute, b []byte) {
	a.buffered.Value(attr, b)
}

// SetEncoding implements EncodingSetter
func (a *Accumulator) SetEncoding(enc Encoding) {
	a.enc = enc
}

// Err returns the error that stopped the Accumulator, if any
func (a *Accumulator) Err() error {
	return a.err
}

// DataSet returns the accumulated data set. It fails if an error occurred or if sequences or
// items of undefined length were left without their delimitation item.
func (a *Accumulator) DataSet() (*DataSet, error) {
	if a.err != nil {
		return nil, a.err
	}
	if open := len(a.stack) - 1; open > 0 {
		return nil, fmt.Errorf("%w: %d sequence(s) or item(s) not delimited", ErrTruncated, open)
	}
	return a.stack[0].dataSet, nil
}

func (a *Accumulator) header(attr Attribute) Control {
	if a.err != nil {
		return Stop
	}

	var c Control
	var err error
	switch top := a.top(); top.kind {
	case sequenceContainer:
		c, err = a.itemHeader(top, attr)
	case fragmentsContainer:
		c, err = a.fragmentHeader(top, attr)
	default:
		c, err = a.elementHeader(top, attr)
	}
	if err != nil {
		a.err = err
		return Stop
	}
	return c
}

func (a *Accumulator) value(attr Attribute, b []byte) {
	if a.err != nil {
		return
	}
	if err := a.complete(attr, b); err != nil {
		a.err = err
	}
}

func (a *Accumulator) elementHeader(top *container, attr Attribute) (Control, error) {
	switch attr.Tag {
	case ItemDelimitationItemTag:
		if len(a.stack) == 1 || top.dataSet.Length != UndefinedLength {
			return Stop, fmt.Errorf("unexpected item delimitation item at offset %d", attr.DataPosition)
		}
		a.pop()
		a.top().seq.append(top.dataSet)
		return Skip, nil
	case ItemTag, SequenceDelimitationItemTag:
		return Stop, fmt.Errorf("unexpected %v in data set at offset %d", attr.Tag, attr.DataPosition)
	}

	vr := attr.ResolvedVR()
	element := &DataElement{attr.Tag, vr, nil, attr.Length}
	if attr.HasUndefinedLength() {
		switch {
		case vr == SQVR || vr == UNVR:
			a.push(newSequenceContainer(element, top.coding))
		case vr.kind == bulkDataVR:
			a.push(newFragmentsContainer(element, a.isBulkData(element), top.coding))
		default:
			return Stop, fmt.Errorf("undefined length for %v element %v", vr, attr.Tag)
		}
		return Skip, nil
	}

	if vr != SQVR && a.isBulkData(element) {
		element.ValueField = []BulkDataReference{{ByteRegion{attr.DataPosition, int64(attr.Length)}}}
		return Skip, a.add(element)
	}
	if attr.Length == 0 {
		return Consume, a.complete(attr, nil)
	}
	return Consume, nil
}

func (a *Accumulator) itemHeader(top *container, attr Attribute) (Control, error) {
	switch attr.Tag {
	case ItemTag:
		if attr.HasUndefinedLength() {
			a.push(newItemContainer(UndefinedLength, top.coding))
			return Skip, nil
		}
		if attr.Length == 0 {
			return Consume, a.complete(attr, nil)
		}
		return Consume, nil
	case SequenceDelimitationItemTag:
		if len(a.stack) == 1 {
			return Stop, fmt.Errorf("unexpected sequence delimitation item at offset %d", attr.DataPosition)
		}
		a.pop()
		return Skip, a.add(top.close())
	}
	return Stop, fmt.Errorf("unexpected %v in sequence at offset %d", attr.Tag, attr.DataPosition)
}

func (a *Accumulator) fragmentHeader(top *container, attr Attribute) (Control, error) {
	switch attr.Tag {
	case ItemTag:
		if attr.HasUndefinedLength() {
			return Stop, fmt.Errorf("expected fragment to be of explicit length at offset %d", attr.DataPosition)
		}
		if top.refs != nil || attr.Length == 0 {
			top.addFragment(attr, nil)
			return Skip, nil
		}
		return Consume, nil
	case SequenceDelimitationItemTag:
		a.pop()
		return Skip, a.add(top.close())
	}
	return Stop, fmt.Errorf("unexpected %v in encapsulated pixel data at offset %d", attr.Tag, attr.DataPosition)
}

// complete handles a value field received in full
func (a *Accumulator) complete(attr Attribute, b []byte) error {
	top := a.top()
	switch top.kind {
	case fragmentsContainer:
		top.addFragment(attr, b)
		return nil
	case sequenceContainer:
		item := newItemContainer(attr.Length, top.coding)
		if err := a.parseNested(item, attr, b); err != nil {
			return fmt.Errorf("parsing item at offset %d: %w", attr.DataPosition, err)
		}
		top.seq.append(item.dataSet)
		return nil
	}

	vr := attr.ResolvedVR()
	element := &DataElement{attr.Tag, vr, nil, attr.Length}
	if vr == SQVR {
		seq := newSequenceContainer(element, top.coding)
		if err := a.parseNested(seq, attr, b); err != nil {
			return fmt.Errorf("parsing sequence %v: %w", attr.Tag, err)
		}
		return a.add(seq.close())
	}

	value, err := decodeValue(vr, b, valueByteOrder(a.enc, attr.Tag), top.coding)
	if err != nil {
		return fmt.Errorf("decoding %v: %w", attr.Tag, err)
	}
	element.ValueField = value

	if attr.Tag == SpecificCharacterSetTag {
		terms, _ := value.([]string)
		coding, err := characterSet(terms)
		if err != nil {
			return err
		}
		top.coding = coding
	}
	return a.add(element)
}

// parseNested parses the value field of a sequence or item of explicit length into root
func (a *Accumulator) parseNested(root *container, attr Attribute, b []byte) error {
	nested := newAccumulator(a.enc, a.opts, root)
	_, _, err := ParseFull(a.enc, nested, b, WithOffset(attr.DataPosition))
	if nested.err != nil {
		return nested.err
	}
	if err != nil {
		return err
	}
	if open := len(nested.stack) - 1; open > 0 {
		return fmt.Errorf("%w: %d sequence(s) or item(s) not delimited", ErrTruncated, open)
	}
	return nil
}

// add applies the transforms to element and stores the result in the innermost data set
func (a *Accumulator) add(element *DataElement) error {
	var err error
	for i, opt := range a.opts {
		if opt.transform == nil {
			continue
		}
		element, err = opt.transform(element)
		if err != nil {
			return fmt.Errorf("applying option %v: %w", i, err)
		}
		if element == nil { // option wants to filter this element out
			return nil
		}
	}

	top := a.top()
	if top.kind != itemContainer {
		return fmt.Errorf("element %v outside of a data set", element.Tag)
	}
	top.dataSet.Elements[element.Tag] = element
	return nil
}

func (a *Accumulator) isBulkData(element *DataElement) bool {
	for _, opt := range a.opts {
		if opt.isBulkData != nil && opt.isBulkData(element) {
			return true
		}
	}
	return false
}

func (a *Accumulator) top() *container {
	return a.stack[len(a.stack)-1]
}

func (a *Accumulator) push(c *container) {
	a.stack = append(a.stack, c)
}

func (a *Accumulator) pop() {
	a.stack = a.stack[:len(a.stack)-1]
}
