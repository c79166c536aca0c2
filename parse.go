package dcmstream

import "errors"

/*
===============================================================================
    Parse Loop
===============================================================================
*/

// parse decodes elements from `window` until it is exhausted, the innermost open
// sequence ends, or (in the meta phase) the meta group ends. `base` is the absolute
// stream offset of window[0].
//
// When the window ends part way through an element, `truncated` is true and `tail`
// holds the bytes from the start of that element. Partially decoded elements are
// rolled back so that `tail` can be decoded again once more bytes are available.
func parse(window []byte, base int64, ctx *ParseContext) (tail []byte, truncated bool, err error) {
	ctx.depth++
	defer func() { ctx.depth-- }()

	c := newCursor(ctx, window, base)
	var (
		start int
		tag   Tag
	)
	fail := func(err error) ([]byte, bool, error) {
		if IsRecoverable(err) {
			if ctx.depth == 0 {
				ctx.dropHooks()
				ctx.log.Debugf("element %s at offset 0x%X continues past end of window (%v)", tag, base+int64(start), err)
				return window[start:], true, nil
			}
			return nil, false, err
		}
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, false, err
		}
		return nil, false, &DecodeError{Tag: tag, Position: c.Offset(), Err: err}
	}

	for {
		done, err := exitDefinedLengthScope(ctx)
		if err != nil {
			return fail(err)
		}
		if done {
			return nil, false, nil
		}
		if c.Remaining() == 0 {
			break
		}

		start = c.Pos()
		if tag, err = decodeTag(c); err != nil {
			return fail(err)
		}

		cmd, err := manageSequenceControl(tag, c, ctx)
		if err != nil {
			return fail(err)
		}
		switch cmd {
		case nextElement:
			continue
		case exitRecursion:
			return nil, false, nil
		}

		if ctx.metaPhase && ctx.depth == 0 && tag.Group() != 0x0002 {
			if err := c.Retreat(4); err != nil {
				return fail(err)
			}
			ctx.log.Debugf("exiting meta (next group = %04X, offset = 0x%X)", tag.Group(), c.Offset())
			ctx.metaDone = true
			return window[start:], false, nil
		}

		vr, err := decodeVR(c, tag)
		if err != nil {
			return fail(err)
		}
		length, err := decodeLength(c, vr)
		if err != nil {
			return fail(err)
		}
		el, err := parseValue(c, ctx, tag, vr, length)
		if err != nil {
			return fail(err)
		}
		el.Offset = base + int64(start)

		ctx.queueHook(window[start:c.Pos()], el)
		if ctx.depth == 0 {
			ctx.flushHooks()
		}
	}

	if ctx.topScope() != nil {
		// the window ended between elements, but the open sequence has not
		return fail(BoundaryExceededError("window ended inside %s", ctx.topScope().sq.Tag))
	}
	return nil, false, nil
}

// parseValue dispatches on VR and length to the sequence, fragment or scalar decoders,
// and records the resulting element in its container.
func parseValue(c *Cursor, ctx *ParseContext, tag Tag, vr VR, length uint32) (*Element, error) {
	switch {
	case vr == SQ, vr == UN && length == UndefinedLength:
		el := NewSequenceElement(tag, vr, length)
		return el, parseSequence(c, ctx, el)
	case length == UndefinedLength && (vr == OB || vr == OW):
		el, err := parseFragments(c, ctx, tag, vr)
		if err != nil {
			return nil, err
		}
		return el, ctx.save(el)
	case length == UndefinedLength:
		return nil, MalformedError("%s %s has undefined length, which is not permitted for VR %s", tag, tagName(tag), vr)
	}

	raw, err := c.read(int(length))
	if err != nil {
		return nil, err
	}
	el := NewScalarElement(tag, vr, length, decodeValue(vr, raw, ctx))
	if tag == SpecificCharacterSetTag && ctx.depth == 0 {
		ctx.setCharacterSet(el.value)
	}
	return el, ctx.save(el)
}
