package dcmstream

import "bytes"

/*
===============================================================================
    Encapsulated Pixel Data
===============================================================================
*/

// parseFragments decodes an undefined length OB or OW element: a basic offset table
// item followed by fragment items, terminated by a sequence delimiter.
// See ``A.4 Transfer Syntaxes For Encapsulation of Encoded Pixel Data``
func parseFragments(c *Cursor, ctx *ParseContext, tag Tag, vr VR) (*Element, error) {
	first, err := decodeTag(c)
	if err != nil {
		return nil, err
	}
	if first != ItemTag {
		return nil, MalformedError("encapsulated %s must begin with %s, got %s", tag, ItemTag, first)
	}
	tableLength, err := c.uint32()
	if err != nil {
		return nil, err
	}
	if tableLength%4 != 0 {
		return nil, MalformedError("basic offset table of %s has length %d, not a multiple of 4", tag, tableLength)
	}
	raw, err := c.read(int(tableLength))
	if err != nil {
		return nil, err
	}
	offsets := make([]uint32, tableLength/4)
	for i := range offsets {
		offsets[i] = ctx.byteOrder.Uint32(raw[i*4:])
	}

	el := NewFragmentedElement(tag, vr, offsets)
	total := 8 + tableLength
	for index := 0; ; index++ {
		next, err := decodeTag(c)
		if err != nil {
			return nil, err
		}
		switch next {
		case SequenceDelimitationTag:
			if err := c.Walk(4); err != nil {
				return nil, err
			}
			el.Length = total + 8
			ctx.log.Debugf("%s: %d fragments, %d bytes", tag, len(el.fragments), el.Length)
			return el, nil
		case ItemTag:
		default:
			return nil, MalformedError("expected fragment %s or %s in %s, got %s", ItemTag, SequenceDelimitationTag, tag, next)
		}
		length, err := c.uint32()
		if err != nil {
			return nil, err
		}
		data, err := c.read(int(length))
		if err != nil {
			return nil, err
		}
		fragment := Fragment{Index: index, Length: length}
		if ctx.skipPixelData {
			fragment.Skipped = true
		} else {
			fragment.Data = bytes.Clone(data)
		}
		el.addFragment(fragment)
		total += 8 + length
	}
}
