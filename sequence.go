package dcmstream

import "encoding/binary"

/*
===============================================================================
    Sequences: Items, Delimiters and Recursion
===============================================================================
*/

// loopCommand tells the parse loop how to proceed after sequence control handling
type loopCommand int

const (
	continueDecoding loopCommand = iota // not a control tag: decode VR, length and value
	nextElement                         // control tag consumed: start the next iteration
	exitRecursion                       // the open sequence is complete: return to the parent frame
)

// exitDefinedLengthScope reports whether the innermost scope is a defined length
// sequence whose declared length has been fully traversed.
func exitDefinedLengthScope(ctx *ParseContext) (bool, error) {
	s := ctx.topScope()
	if s == nil || s.undefined() {
		return false, nil
	}
	if s.traversed > int64(s.declared) {
		return false, MalformedError("%s %s overran its declared length of %d bytes (traversed %d)", s.sq.Tag, s.sq.Name, s.declared, s.traversed)
	}
	if s.traversed < int64(s.declared) {
		return false, nil
	}
	if ctx.depth == 0 {
		return false, InvariantViolationError("end of sequence %s detected at depth 0", s.sq.Tag)
	}
	ctx.log.Debugf("end of defined length sequence %s (%d bytes)", s.sq.Tag, s.declared)
	return true, nil
}

// manageSequenceControl handles item and delimitation tags. `tag` has already been read.
func manageSequenceControl(tag Tag, c *Cursor, ctx *ParseContext) (loopCommand, error) {
	if !tag.isControl() {
		return continueDecoding, nil
	}
	s := ctx.topScope()
	if s == nil {
		return nextElement, MalformedError("%s %s found outside of a sequence", tag, tagName(tag))
	}
	switch tag {
	case ItemTag:
		return startItem(c, s)
	case ItemDelimitationTag:
		if err := c.Walk(4); err != nil {
			return nextElement, err
		}
		if !s.undefined() {
			return nextElement, nil
		}
		next, err := decodeTag(c)
		if err != nil {
			return nextElement, err
		}
		switch next {
		case ItemTag:
			return startItem(c, s)
		case SequenceDelimitationTag:
			return endUndefinedScope(c, s)
		}
		return nextElement, MalformedError("%s follows item delimitation in %s, expected %s or %s", next, s.sq.Tag, ItemTag, SequenceDelimitationTag)
	case SequenceDelimitationTag:
		if !s.undefined() {
			return nextElement, MalformedError("sequence delimitation in defined length sequence %s", s.sq.Tag)
		}
		return endUndefinedScope(c, s)
	}
	return continueDecoding, nil
}

// startItem opens a new item. Item lengths are not used: items end either at the
// item delimiter or at the end of the enclosing defined length sequence.
func startItem(c *Cursor, s *scope) (loopCommand, error) {
	if err := c.Walk(4); err != nil {
		return nextElement, err
	}
	s.sq.addItem()
	c.ctx.log.Debugf("item #%d of %s at offset 0x%X", len(s.sq.items)-1, s.sq.Tag, c.Offset())
	return nextElement, nil
}

func endUndefinedScope(c *Cursor, s *scope) (loopCommand, error) {
	if err := c.Walk(4); err != nil {
		return nextElement, err
	}
	s.sq.Length = uint32(s.traversed)
	c.ctx.log.Debugf("end of undefined length sequence %s (%d bytes)", s.sq.Tag, s.traversed)
	return exitRecursion, nil
}

// parseSequence decodes the items of sequence `el`, whose header has been read.
// The element is recorded in its container first, so that its items are visible to
// nested frames; it is removed again if decoding does not complete.
func parseSequence(c *Cursor, ctx *ParseContext, el *Element) (err error) {
	if err = ctx.save(el); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			ctx.unsave(el)
		}
	}()

	if el.Length == 0 {
		ctx.log.Debugf("empty defined length sequence %s", el.Tag)
		return nil
	}
	if el.Length == UndefinedLength {
		next, err := peekTag(c)
		if err != nil {
			return err
		}
		if next == SequenceDelimitationTag {
			ctx.log.Debugf("empty undefined length sequence %s", el.Tag)
			el.Length = 8
			return c.Walk(8)
		}
	}

	// UN with undefined length is encoded as implicit VR little endian
	if el.VR == UN {
		implicit, byteOrder := ctx.implicit, ctx.byteOrder
		ctx.implicit, ctx.byteOrder = true, binary.LittleEndian
		defer func() { ctx.implicit, ctx.byteOrder = implicit, byteOrder }()
	}

	// a nested frame reports running out of window as a BoundaryExceeded error,
	// so that the whole sequence is decoded again from its start
	ctx.pushScope(el)
	_, _, err = parse(c.window[c.pos:], c.Offset(), ctx)
	if err == nil {
		err = c.Sync()
	}
	ctx.popScope()
	return err
}
