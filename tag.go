package dcmstream

import (
	"fmt"
	"strconv"

	dicomtag "github.com/suyashkumar/dicom/pkg/tag"
)

/*
===============================================================================
    Tag
===============================================================================
*/

// Tag is a data element tag: group in the upper 16 bits, element in the lower.
type Tag uint32

// Sentinel and well-known tags.
const (
	ItemTag                 Tag = 0xFFFEE000
	ItemDelimitationTag     Tag = 0xFFFEE00D
	SequenceDelimitationTag Tag = 0xFFFEE0DD

	TransferSyntaxUIDTag    Tag = 0x00020010
	SpecificCharacterSetTag Tag = 0x00080005
	PixelDataTag            Tag = 0x7FE00010
)

// UnrecognisedName is used as the name for tags absent from the dictionary.
const UnrecognisedName = "PrivateOrUnrecognised"

// NewTag builds a Tag from its group and element numbers.
func NewTag(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the group number
func (t Tag) Group() uint16 {
	return uint16(t >> 16)
}

// Element returns the element number
func (t Tag) Element() uint16 {
	return uint16(t)
}

// String renders the tag as "(gggg,eeee)" in lowercase hex.
func (t Tag) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group(), t.Element())
}

// IsPrivate reports whether the tag belongs to an odd (private) group.
func (t Tag) IsPrivate() bool {
	return t.Group()%2 == 1
}

// isControl reports whether the tag is one of the item / delimitation sentinels,
// which carry no VR.
func (t Tag) isControl() bool {
	return t == ItemTag || t == ItemDelimitationTag || t == SequenceDelimitationTag
}

// ParseTag is the inverse of `Tag.String`.
func ParseTag(s string) (Tag, error) {
	if len(s) != 11 || s[0] != '(' || s[5] != ',' || s[10] != ')' {
		return 0, MalformedTagError("ParseTag(%q): expected form (gggg,eeee)", s)
	}
	group, err := strconv.ParseUint(s[1:5], 16, 16)
	if err != nil {
		return 0, MalformedTagError("ParseTag(%q): group is not hex: %v", s, err)
	}
	element, err := strconv.ParseUint(s[6:10], 16, 16)
	if err != nil {
		return 0, MalformedTagError("ParseTag(%q): element is not hex: %v", s, err)
	}
	return NewTag(uint16(group), uint16(element)), nil
}

// LookupTag returns the dictionary keyword and the first listed VR for `t`.
// If the tag is not found, `found` will be false.
func LookupTag(t Tag) (name string, vr VR, found bool) {
	switch t {
	case ItemTag:
		return "Item", "", true
	case ItemDelimitationTag:
		return "ItemDelimitationItem", "", true
	case SequenceDelimitationTag:
		return "SequenceDelimitationItem", "", true
	}
	info, err := dicomtag.Find(dicomtag.Tag{Group: t.Group(), Element: t.Element()})
	if err != nil {
		return UnrecognisedName, UN, false
	}
	vr = UN
	if len(info.VRs) > 0 {
		vr = VR(info.VRs[0])
	}
	return info.Keyword, vr, true
}

// tagName is a shorthand for LookupTag that only returns the name.
func tagName(t Tag) string {
	name, _, _ := LookupTag(t)
	return name
}
