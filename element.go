// Package dcmstream provides a streaming decoder for DICOM files
package dcmstream

import (
	"fmt"
	"iter"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

/*
===============================================================================
    DataSet
===============================================================================
*/

// DataSet represents a single Data Set, with elements kept in encounter order.
// See ``7.2 Data Set`` for more information
type DataSet struct {
	elements *orderedmap.OrderedMap[Tag, *Element]
}

// NewDataSet returns a fresh DataSet
func NewDataSet() *DataSet {
	return &DataSet{elements: orderedmap.NewOrderedMap[Tag, *Element]()}
}

// Get returns the element indexed by `tag`.
// If the tag is not found, param `bool` will be false.
func (ds *DataSet) Get(tag Tag) (*Element, bool) {
	return ds.elements.Get(tag)
}

// GetByString is as `Get`, but accepts a tag in the form "(gggg,eeee)".
func (ds *DataSet) GetByString(tag string) (*Element, bool, error) {
	t, err := ParseTag(tag)
	if err != nil {
		return nil, false, err
	}
	el, found := ds.Get(t)
	return el, found, nil
}

// Has returns whether the element indexed by `tag` exists.
func (ds *DataSet) Has(tag Tag) bool {
	_, found := ds.elements.Get(tag)
	return found
}

// Len returns the number of elements.
func (ds *DataSet) Len() int {
	return ds.elements.Len()
}

// Elements iterates over the elements in encounter order
func (ds *DataSet) Elements() iter.Seq2[Tag, *Element] {
	return ds.elements.AllFromFront()
}

// Tags returns all tags in encounter order
func (ds *DataSet) Tags() []Tag {
	tags := make([]Tag, 0, ds.Len())
	for tag := range ds.Elements() {
		tags = append(tags, tag)
	}
	return tags
}

// GetElementValue attempts to write the value of the element indexed by `tag` into `dst`.
// Its return value indicates whether the DataSet contains said `tag`.
func (ds *DataSet) GetElementValue(tag Tag, dst interface{}) (bool, error) {
	el, found := ds.Get(tag)
	if !found {
		return false, nil
	}
	value := el.Value()
	ok := true
	switch d := dst.(type) {
	case *string:
		*d, ok = value.(string)
	case *[]string:
		switch v := value.(type) {
		case []string:
			*d = v
		case string:
			*d = []string{v}
		default:
			ok = false
		}
	case *uint16:
		*d, ok = value.(uint16)
	case *uint32:
		*d, ok = value.(uint32)
	case *int32:
		*d, ok = value.(int32)
	case *float32:
		*d, ok = value.(float32)
	case *float64:
		*d, ok = value.(float64)
	case *[]byte:
		*d, ok = value.([]byte)
	case *interface{}:
		*d = value
	default:
		return true, fmt.Errorf("GetElementValue(%s): unsupported destination %T", tag, dst)
	}
	if !ok {
		return true, fmt.Errorf("GetElementValue(%s): value of type %T cannot be written to %T", tag, value, dst)
	}
	return true, nil
}

// Describe returns a string array of human-readable descriptions of each element
func (ds *DataSet) Describe(indentLevel int) []string {
	var description []string
	for _, el := range ds.Elements() {
		description = append(description, el.Describe(indentLevel)...)
	}
	return description
}

func (ds *DataSet) set(el *Element) {
	ds.elements.Set(el.Tag, el)
}

func (ds *DataSet) remove(el *Element) {
	if current, found := ds.elements.Get(el.Tag); found && current == el {
		ds.elements.Delete(el.Tag)
	}
}

/*
===============================================================================
    Element
===============================================================================
*/

// ElementKind discriminates the payload held by an Element
type ElementKind int

const (
	// ScalarKind elements hold a single decoded value
	ScalarKind ElementKind = iota
	// SequenceKind elements hold an ordered list of item data sets
	SequenceKind
	// FragmentedKind elements hold an offset table and encapsulated fragments
	FragmentedKind
)

func (k ElementKind) String() string {
	switch k {
	case ScalarKind:
		return "Scalar"
	case SequenceKind:
		return "Sequence"
	case FragmentedKind:
		return "Fragmented"
	}
	return fmt.Sprintf("ElementKind(%d)", int(k))
}

// Fragment is one encapsulated pixel data fragment
type Fragment struct {
	Index   int
	Length  uint32
	Data    []byte
	Skipped bool
}

func (f Fragment) String() string {
	if f.Skipped {
		return fmt.Sprintf("fragment #%d: SKIPPED PIXEL DATA (%d bytes)", f.Index, f.Length)
	}
	return fmt.Sprintf("fragment #%d: %d bytes", f.Index, f.Length)
}

// Element represents a Data Element.
// See ``7.1 Data Elements`` for more information
type Element struct {
	Tag    Tag
	Name   string
	VR     VR
	Length uint32 // declared length; effective length once an undefined length element completes
	Offset int64  // absolute stream offset of the element's tag

	kind        ElementKind
	value       interface{}
	items       []*DataSet
	fragments   []Fragment
	offsetTable []uint32
}

// NewScalarElement returns an element holding a single decoded value
func NewScalarElement(tag Tag, vr VR, length uint32, value interface{}) *Element {
	return &Element{Tag: tag, Name: tagName(tag), VR: vr, Length: length, kind: ScalarKind, value: value}
}

// NewSequenceElement returns an element that holds items. Items are appended while decoding.
func NewSequenceElement(tag Tag, vr VR, length uint32) *Element {
	return &Element{Tag: tag, Name: tagName(tag), VR: vr, Length: length, kind: SequenceKind}
}

// NewFragmentedElement returns an encapsulated element with the given basic offset table
func NewFragmentedElement(tag Tag, vr VR, offsetTable []uint32) *Element {
	return &Element{Tag: tag, Name: tagName(tag), VR: vr, Length: UndefinedLength, kind: FragmentedKind, offsetTable: offsetTable}
}

// Kind returns which payload the element holds
func (e *Element) Kind() ElementKind {
	return e.kind
}

// Value returns the decoded value of a scalar element, nil otherwise
func (e *Element) Value() interface{} {
	if e.kind != ScalarKind {
		return nil
	}
	return e.value
}

// Items returns the item data sets of a sequence element
func (e *Element) Items() []*DataSet {
	return e.items
}

// Fragments returns the fragments of an encapsulated element
func (e *Element) Fragments() []Fragment {
	return e.fragments
}

// OffsetTable returns the basic offset table of an encapsulated element
func (e *Element) OffsetTable() []uint32 {
	return e.offsetTable
}

func (e *Element) addItem() *DataSet {
	item := NewDataSet()
	e.items = append(e.items, item)
	return item
}

func (e *Element) lastItem() *DataSet {
	if len(e.items) == 0 {
		return nil
	}
	return e.items[len(e.items)-1]
}

func (e *Element) addFragment(f Fragment) {
	e.fragments = append(e.fragments, f)
}

func (e *Element) describeValue() string {
	switch v := e.value.(type) {
	case nil:
		return "(empty)"
	case string:
		if v == "" {
			return "(empty)"
		}
	case []byte:
		if len(v) == 0 {
			return "(empty)"
		}
		return fmt.Sprintf("Binary data (%s): %d bytes", e.VR, len(v))
	case Opaque:
		return fmt.Sprintf("Binary data (%s): %d bytes", e.VR, len(v))
	}
	if e.Length > 256 {
		return fmt.Sprintf("(%d bytes)", e.Length)
	}
	return fmt.Sprint(e.value)
}

// Describe returns a string array of human-readable element description
func (e *Element) Describe(indentLevel int) []string {
	indentStr := strings.Repeat(" ", indentLevel)
	header := fmt.Sprintf("%s[%s] %s %s", indentStr, e.VR, e.Tag, e.Name)
	switch e.kind {
	case SequenceKind:
		if len(e.items) == 0 {
			return []string{header + ": (empty)"}
		}
		description := []string{header + ":"}
		for i, item := range e.items {
			description = append(description, fmt.Sprintf("%s    item #%d:", indentStr, i))
			description = append(description, item.Describe(indentLevel+8)...)
		}
		return description
	case FragmentedKind:
		description := []string{fmt.Sprintf("%s: %d fragments, offset table %v", header, len(e.fragments), e.offsetTable)}
		for _, f := range e.fragments {
			description = append(description, fmt.Sprintf("%s    %s", indentStr, f))
		}
		return description
	}
	return []string{fmt.Sprintf("%s: %s", header, e.describeValue())}
}

// ByTag implements a sort interface
type ByTag []*Element

func (a ByTag) Len() int           { return len(a) }
func (a ByTag) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ByTag) Less(i, j int) bool { return a[i].Tag < a[j].Tag }
