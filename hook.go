package dcmstream

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

/*
===============================================================================
    Element Hooks
===============================================================================
*/

// HookMode selects whether hooks run inline with decoding or concurrently
type HookMode int

const (
	// HookSync runs the hook on the decoding goroutine
	HookSync HookMode = iota
	// HookAsync runs the hook on its own goroutine. `Decoder.Finish` waits for all of them.
	HookAsync
)

// asyncHookLimit bounds the number of hook goroutines in flight
const asyncHookLimit = 64

// ElementHook receives every completed element together with its raw encoded bytes.
// Hook failures are logged, and never interrupt decoding.
type ElementHook interface {
	HandleElement(raw []byte, el *Element) error
}

// HookFunc adapts an ordinary function to ElementHook
type HookFunc func(raw []byte, el *Element) error

// HandleElement calls f(raw, el)
func (f HookFunc) HandleElement(raw []byte, el *Element) error {
	return f(raw, el)
}

// WithHook returns a copy of the configuration that reports elements to `h`
func (cfg Config) WithHook(h ElementHook, mode HookMode) Config {
	cfg.Hook = h
	cfg.HookMode = mode
	return cfg
}

type hookDispatcher struct {
	hook  ElementHook
	mode  HookMode
	log   *zap.SugaredLogger
	wg    sync.WaitGroup
	guard chan bool
}

func newHookDispatcher(hook ElementHook, mode HookMode, log *zap.SugaredLogger) *hookDispatcher {
	return &hookDispatcher{hook: hook, mode: mode, log: log, guard: make(chan bool, asyncHookLimit)}
}

func (h *hookDispatcher) dispatch(ev hookEvent) {
	if h.mode == HookSync {
		h.call(ev)
		return
	}
	h.guard <- true
	h.wg.Add(1)
	go func() {
		defer func() {
			<-h.guard
			h.wg.Done()
		}()
		h.call(ev)
	}()
}

func (h *hookDispatcher) call(ev hookEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warnw("element hook panicked", "tag", ev.el.Tag.String(), "panic", fmt.Sprint(r))
		}
	}()
	if err := h.hook.HandleElement(ev.raw, ev.el); err != nil {
		h.log.Warnw("element hook failed", "tag", ev.el.Tag.String(), "error", err)
	}
}

// wait blocks until all asynchronous hooks have returned
func (h *hookDispatcher) wait() {
	if h != nil {
		h.wg.Wait()
	}
}
