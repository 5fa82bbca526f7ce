package cilemit

import (
	"fmt"

	"github.com/wippyai/cil-emit/body"
	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
)

// Assemble builds a method body named name. build receives the root emitter
// and the finished method is returned once every region, scope and label
// has been closed.
func Assemble(name string, build func(emit.Emitter) error, opts ...body.Option) (*body.Method, error) {
	b := body.New(name, opts...)
	root := emit.NewRoot(b)
	if err := build(root); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", name, err)
	}
	if depth := root.Depth(); depth > 0 {
		return nil, fmt.Errorf("assemble %s: %w", name, errors.Unclosed("region", depth))
	}
	m, err := b.Finish()
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", name, err)
	}
	return m, nil
}
