package emit_test

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/cil-emit/body"
	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/errors"
	"github.com/wippyai/cil-emit/meta"
	"github.com/wippyai/cil-emit/opcode"
)

func TestRootGuardsHandlers(t *testing.T) {
	calls := map[string]func(*emit.Root) error{
		"catch":   func(r *emit.Root) error { return r.BeginCatch(meta.Exception) },
		"finally": func(r *emit.Root) error { return r.BeginFinally() },
		"fault":   func(r *emit.Root) error { return r.BeginFault() },
		"filter":  func(r *emit.Root) error { return r.BeginFilter() },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			root := emit.NewRoot(body.New("m"))
			err := call(root)
			if !stderrors.Is(err, errors.ErrInvalidNesting) {
				t.Fatalf("got %v, want invalid nesting", err)
			}
			var e *errors.Error
			if stderrors.As(err, &e) && e.Detail != "must be inside a protected region" {
				t.Errorf("detail = %q", e.Detail)
			}

			if _, err := root.BeginRegion(); err != nil {
				t.Fatal(err)
			}
			if err := call(root); err != nil {
				t.Errorf("inside a region: %v", err)
			}
		})
	}
}

func TestRootDepthCounter(t *testing.T) {
	root := emit.NewRoot(body.New("m"))
	if root.Depth() != 0 {
		t.Fatalf("initial depth %d", root.Depth())
	}
	_, _ = root.BeginRegion()
	_, _ = root.BeginRegion()
	if root.Depth() != 2 {
		t.Errorf("depth = %d, want 2", root.Depth())
	}
	_ = root.BeginFinally()
	if err := root.EndRegion(); err != nil {
		t.Fatal(err)
	}
	if root.Depth() != 1 {
		t.Errorf("depth = %d, want 1", root.Depth())
	}
}

func TestRootFailedEndKeepsDepth(t *testing.T) {
	root := emit.NewRoot(body.New("m"))
	_, _ = root.BeginRegion()
	if err := root.EndRegion(); !stderrors.Is(err, errors.ErrMissingHandler) {
		t.Fatalf("got %v, want missing handler", err)
	}
	if root.Depth() != 1 {
		t.Errorf("failed EndRegion changed depth to %d", root.Depth())
	}
}

func TestRootInstructions(t *testing.T) {
	b := body.New("m")
	root := emit.NewRoot(b)
	for _, op := range []opcode.Code{opcode.Endfilter, opcode.Endfinally, opcode.Rethrow, opcode.Prefix3} {
		if err := root.Emit(op); !stderrors.Is(err, errors.ErrUnsupportedInstruction) {
			t.Errorf("%s: got %v", op, err)
		}
	}
	if err := root.Emit(opcode.Ret); err != nil {
		t.Errorf("ret at root: %v", err)
	}
	if root.Context() != emit.ContextRoot {
		t.Errorf("context = %s", root.Context())
	}
	if b.Offset() != 1 {
		t.Errorf("offset = %d, want 1", b.Offset())
	}
}
