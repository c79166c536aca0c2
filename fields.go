package dcmstream

/*
===============================================================================
    Field Decoders: Tag, VR and Length
===============================================================================
*/

// decodeTag reads a group/element pair in the active byte order
func decodeTag(c *Cursor) (Tag, error) {
	buf, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return tagFromBytes(buf, c.ctx), nil
}

// peekTag is as `decodeTag`, but leaves the cursor in place
func peekTag(c *Cursor) (Tag, error) {
	buf, err := c.peek(4)
	if err != nil {
		return 0, err
	}
	return tagFromBytes(buf, c.ctx), nil
}

func tagFromBytes(buf []byte, ctx *ParseContext) Tag {
	return NewTag(ctx.byteOrder.Uint16(buf[0:2]), ctx.byteOrder.Uint16(buf[2:4]))
}

// decodeVR returns the VR of the element with tag `tag`. In implicit VR encodings
// this is a dictionary lookup and consumes nothing.
func decodeVR(c *Cursor, tag Tag) (VR, error) {
	if c.ctx.implicit {
		if tag.Element() == 0x0000 { // group length
			return UL, nil
		}
		_, vr, _ := LookupTag(tag)
		return vr, nil
	}
	buf, err := c.read(2)
	if err != nil {
		return "", err
	}
	vr := VR(buf)
	if !vr.IsRecognised() {
		return "", UnrecognisedVRError("%s: %q is not a recognised VR", tag, string(buf))
	}
	return vr, nil
}

// decodeLength reads the value length. Extended VRs skip two reserved bytes and
// carry a 32-bit length, as does every element in implicit VR encodings.
func decodeLength(c *Cursor, vr VR) (uint32, error) {
	if c.ctx.implicit {
		return c.uint32()
	}
	if vr.IsExtended() {
		if err := c.Walk(2); err != nil {
			return 0, err
		}
		return c.uint32()
	}
	length, err := c.uint16()
	return uint32(length), err
}
