package dcmstream

import (
	"bytes"
	"encoding/binary"

	"go.uber.org/zap"
)

/*
===============================================================================
    ParseContext
===============================================================================
*/

// UndefinedLength is the reserved length value for elements terminated by a delimiter.
const UndefinedLength uint32 = 0xFFFFFFFF

// scope is one open sequence on the scope stack.
type scope struct {
	declared  uint32   // declared length of the sequence, or UndefinedLength
	sq        *Element // the sequence element receiving items
	traversed int64    // bytes walked since the scope was opened
}

func (s *scope) undefined() bool {
	return s.declared == UndefinedLength
}

type hookEvent struct {
	raw []byte
	el  *Element
}

// ParseContext is the mutable state shared by every frame of one decode: the
// scope stack, the active encoding and the destination data set.
type ParseContext struct {
	depth  int
	scopes []scope

	// DataSet receives top-level elements: the meta group first, then the main data set.
	DataSet *DataSet

	byteOrder binary.ByteOrder
	implicit  bool
	charset   *CharacterSet

	skipPixelData bool

	// metaPhase is set while the meta group is decoded. The top-level frame stops at
	// the first tag outside group 0x0002 and sets metaDone.
	metaPhase bool
	metaDone  bool

	hooks   *hookDispatcher
	pending []hookEvent

	log *zap.SugaredLogger
}

// newParseContext returns a context set up for the explicit little endian meta group.
// Depth starts at -1 so that the outermost frame runs at depth 0.
func newParseContext(cfg Config, dst *DataSet) *ParseContext {
	ctx := &ParseContext{
		depth:         -1,
		DataSet:       dst,
		byteOrder:     binary.LittleEndian,
		charset:       CharacterSetMap["Default"],
		skipPixelData: cfg.SkipPixelData,
		log:           Logger(),
	}
	if cfg.Hook != nil {
		ctx.hooks = newHookDispatcher(cfg.Hook, cfg.HookMode, ctx.log)
	}
	return ctx
}

// Depth returns the recursion depth of the innermost active frame
func (ctx *ParseContext) Depth() int {
	return ctx.depth
}

func (ctx *ParseContext) topScope() *scope {
	if len(ctx.scopes) == 0 {
		return nil
	}
	return &ctx.scopes[len(ctx.scopes)-1]
}

func (ctx *ParseContext) pushScope(sq *Element) {
	ctx.scopes = append(ctx.scopes, scope{declared: sq.Length, sq: sq})
}

func (ctx *ParseContext) popScope() {
	if len(ctx.scopes) > 0 {
		ctx.scopes = ctx.scopes[:len(ctx.scopes)-1]
	}
}

func (ctx *ParseContext) useTransferSyntax(ts TransferSyntax) {
	ctx.implicit = ts.ImplicitVR
	ctx.byteOrder = ts.ByteOrder()
}

// container returns the data set that the next decoded element belongs to:
// the last item of the innermost open sequence, or the top-level data set.
func (ctx *ParseContext) container() (*DataSet, error) {
	s := ctx.topScope()
	if s == nil {
		return ctx.DataSet, nil
	}
	item := s.sq.lastItem()
	if item == nil {
		return nil, MalformedError("element found in %s %s before any item", s.sq.Tag, s.sq.Name)
	}
	return item, nil
}

// save records `el` in its container
func (ctx *ParseContext) save(el *Element) error {
	ds, err := ctx.container()
	if err != nil {
		return err
	}
	ds.set(el)
	return nil
}

// unsave removes `el` from its container, if it is still the recorded element for its tag
func (ctx *ParseContext) unsave(el *Element) {
	if ds, err := ctx.container(); err == nil {
		ds.remove(el)
	}
}

func (ctx *ParseContext) setCharacterSet(value interface{}) {
	var terms []string
	switch v := value.(type) {
	case string:
		terms = []string{v}
	case []string:
		terms = v
	}
	for _, term := range terms {
		if term == "" {
			continue
		}
		if cs, found := lookupCharacterSet(term); found {
			ctx.log.Debugf("switched character set to %s (%s)", cs.Name, cs.Description)
			ctx.charset = cs
		} else {
			ctx.log.Warnf("unknown character set %q, keeping %s", term, ctx.charset.Name)
		}
		return
	}
}

// queueHook stages an element for the hook. Staged events are only dispatched once the
// enclosing top-level element is complete, so a retried element is never reported twice.
func (ctx *ParseContext) queueHook(raw []byte, el *Element) {
	if ctx.hooks == nil {
		return
	}
	ctx.pending = append(ctx.pending, hookEvent{raw: bytes.Clone(raw), el: el})
}

func (ctx *ParseContext) flushHooks() {
	for _, ev := range ctx.pending {
		ctx.hooks.dispatch(ev)
	}
	ctx.pending = ctx.pending[:0]
}

func (ctx *ParseContext) dropHooks() {
	ctx.pending = ctx.pending[:0]
}
