package emit

import (
	"go.uber.org/zap"

	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
)

// Root is the emitter handed out for a fresh method body. It counts the
// protected regions opened through it and refuses to open handlers when
// none is open.
type Root struct {
	*Decorator
	depth int
}

// NewRoot wraps sink for top-level emission.
func NewRoot(sink Emitter) *Root {
	return &Root{Decorator: Wrap(sink, ContextRoot)}
}

// Depth returns the number of regions opened through r and not yet closed.
func (r *Root) Depth() int { return r.depth }

func (r *Root) BeginRegion() (Label, error) {
	l, err := r.Decorator.BeginRegion()
	if err != nil {
		return NoLabel, err
	}
	r.depth++
	Logger().Debug("region opened", zap.Int("depth", r.depth), zap.Int("offset", r.Offset()))
	return l, nil
}

func (r *Root) EndRegion() error {
	if err := r.Decorator.EndRegion(); err != nil {
		return err
	}
	if r.depth > 0 {
		r.depth--
	}
	Logger().Debug("region closed", zap.Int("depth", r.depth), zap.Int("offset", r.Offset()))
	return nil
}

func (r *Root) BeginCatch(t *meta.Type) error {
	if r.depth == 0 {
		return errors.OutsideRegion("begin_catch")
	}
	return r.Decorator.BeginCatch(t)
}

func (r *Root) BeginFinally() error {
	if r.depth == 0 {
		return errors.OutsideRegion("begin_finally")
	}
	return r.Decorator.BeginFinally()
}

func (r *Root) BeginFault() error {
	if r.depth == 0 {
		return errors.OutsideRegion("begin_fault")
	}
	return r.Decorator.BeginFault()
}

func (r *Root) BeginFilter() error {
	if r.depth == 0 {
		return errors.OutsideRegion("begin_filter")
	}
	return r.Decorator.BeginFilter()
}
