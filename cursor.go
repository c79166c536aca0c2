package dcmstream

/*
===============================================================================
    Cursor
===============================================================================
*/

// Cursor tracks a read position within one byte window.
// A Cursor belongs to exactly one `parse` frame; nested frames create their own
// and are folded back into the parent through `Sync`.
type Cursor struct {
	pos    int
	window []byte
	base   int64 // absolute stream offset of window[0]
	ctx    *ParseContext
}

func newCursor(ctx *ParseContext, window []byte, base int64) *Cursor {
	return &Cursor{window: window, base: base, ctx: ctx}
}

// Pos returns the position relative to the start of the window
func (c *Cursor) Pos() int {
	return c.pos
}

// Offset returns the absolute stream offset of the cursor
func (c *Cursor) Offset() int64 {
	return c.base + int64(c.pos)
}

// Remaining returns the number of unread bytes in the window
func (c *Cursor) Remaining() int {
	return len(c.window) - c.pos
}

// Walk moves the cursor forwards by `n` bytes.
// While a sequence scope is open, the walked bytes are also counted against it.
func (c *Cursor) Walk(n int) error {
	if n < 0 || c.pos+n > len(c.window) {
		return BoundaryExceededError("Walk(%d): would exceed window (%d of %d bytes remaining)", n, c.Remaining(), len(c.window))
	}
	c.pos += n
	if s := c.ctx.topScope(); s != nil {
		s.traversed += int64(n)
	}
	return nil
}

// Retreat moves the cursor backwards by `n` bytes.
// Scope byte counts are not adjusted.
func (c *Cursor) Retreat(n int) error {
	if n < 0 || c.pos-n < 0 {
		return BoundaryExceededError("Retreat(%d): would move before start of window (position %d)", n, c.pos)
	}
	c.pos -= n
	return nil
}

// Sync is called on a parent cursor after a nested frame has returned. It merges the
// completed scope's byte count into the enclosing scope, then walks past the bytes
// the nested frame consumed.
// Must be called before the completed scope is popped.
func (c *Cursor) Sync() error {
	top := c.ctx.topScope()
	if top == nil {
		return InvariantViolationError("Sync(): no open sequence scope")
	}
	if n := len(c.ctx.scopes); n > 1 {
		c.ctx.scopes[n-2].traversed += top.traversed
	}
	return c.Walk(int(top.traversed))
}

// peek returns the next `n` bytes without moving the cursor
func (c *Cursor) peek(n int) ([]byte, error) {
	if c.pos+n > len(c.window) {
		return nil, BoundaryExceededError("peek(%d): would exceed window (%d bytes remaining)", n, c.Remaining())
	}
	return c.window[c.pos : c.pos+n], nil
}

// read returns the next `n` bytes and walks past them.
// The returned slice aliases the window.
func (c *Cursor) read(n int) ([]byte, error) {
	buf, err := c.peek(n)
	if err != nil {
		return nil, err
	}
	return buf, c.Walk(n)
}

func (c *Cursor) uint16() (uint16, error) {
	buf, err := c.read(2)
	if err != nil {
		return 0, err
	}
	return c.ctx.byteOrder.Uint16(buf), nil
}

func (c *Cursor) uint32() (uint32, error) {
	buf, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return c.ctx.byteOrder.Uint32(buf), nil
}
