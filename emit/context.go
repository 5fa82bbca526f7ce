package emit

import (
	"sync"

	"github.com/wippyai/cil-emit/opcode"
)

// Context identifies the structural position a decorator guards.
type Context uint8

const (
	ContextPlain Context = iota // no restrictions
	ContextRoot
	ContextTry
	ContextCatch
	ContextFinally
	ContextFault
	ContextFilter
)

var contextNames = [...]string{
	ContextPlain:   "plain",
	ContextRoot:    "root",
	ContextTry:     "try",
	ContextCatch:   "catch",
	ContextFinally: "finally",
	ContextFault:   "fault",
	ContextFilter:  "filter",
}

func (c Context) String() string {
	if int(c) < len(contextNames) {
		return contextNames[c]
	}
	return "unknown"
}

// IsHandler reports whether c is a handler body context.
func (c Context) IsHandler() bool {
	return c >= ContextCatch
}

// opensHandlers reports whether the context may open handlers directly.
// Restricted bodies must go through the region builder instead.
func (c Context) opensHandlers() bool {
	return c == ContextPlain || c == ContextRoot
}

// guardsRegions reports whether the context may only close regions it
// opened itself.
func (c Context) guardsRegions() bool {
	return c == ContextTry || c.IsHandler()
}

// opensRegions reports whether the context may open a nested region.
func (c Context) opensRegions() bool {
	return c != ContextFilter
}

var forbiddenSets = [...]func() opcode.Set{
	ContextRoot: sync.OnceValue(func() opcode.Set {
		return opcode.Prefixes.With(opcode.Endfilter, opcode.Endfinally, opcode.Rethrow)
	}),
	ContextTry: sync.OnceValue(func() opcode.Set {
		return opcode.Prefixes.With(
			opcode.Endfilter, opcode.Endfinally, opcode.Rethrow,
			opcode.Tail, opcode.Ret, opcode.Jmp,
		)
	}),
	ContextCatch: sync.OnceValue(catchSet),
	ContextFinally: sync.OnceValue(func() opcode.Set {
		return catchSet().With(opcode.Rethrow)
	}),
	ContextFault: sync.OnceValue(func() opcode.Set {
		return catchSet().With(opcode.Rethrow)
	}),
	ContextFilter: sync.OnceValue(func() opcode.Set {
		return opcode.Prefixes.With(
			opcode.Ret, opcode.Endfilter, opcode.Rethrow, opcode.Tail,
			opcode.Localloc, opcode.Jmp, opcode.Endfinally,
		)
	}),
}

func catchSet() opcode.Set {
	return opcode.Prefixes.With(
		opcode.Ret, opcode.Tail, opcode.Endfinally, opcode.Endfilter,
		opcode.Localloc, opcode.Jmp,
	)
}

// Forbidden returns the instructions rejected in c. The plain context
// returns false.
func (c Context) Forbidden() (opcode.Set, bool) {
	if int(c) >= len(forbiddenSets) || forbiddenSets[c] == nil {
		return opcode.Set{}, false
	}
	return forbiddenSets[c](), true
}
