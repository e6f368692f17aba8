package engine

import (
	"fmt"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/types"
	"github.com/sigilzk/sigil/value"
)

type binding struct {
	val     value.Value
	mutable bool
}

// frame is one scope level. Branch frames additionally intercept
// assignments to names bound below them, so a conditional's writes can
// be merged on exit instead of leaking.
type frame struct {
	vars   map[string]*binding
	branch bool
	writes map[string]value.Value
}

type env struct {
	frames []*frame
}

func newEnv() *env {
	return &env{frames: []*frame{{vars: map[string]*binding{}}}}
}

func (e *env) push() {
	e.frames = append(e.frames, &frame{vars: map[string]*binding{}})
}

func (e *env) pushBranch() {
	e.frames = append(e.frames, &frame{
		vars:   map[string]*binding{},
		branch: true,
		writes: map[string]value.Value{},
	})
}

func (e *env) pop() *frame {
	f := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	return f
}

// define binds a name in the top frame, shadowing any outer binding.
func (e *env) define(name string, v value.Value, mutable bool) {
	top := e.frames[len(e.frames)-1]
	top.vars[name] = &binding{val: v, mutable: mutable}
}

// lookup resolves a name, honoring pending branch writes.
func (e *env) lookup(name string) (value.Value, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := e.frames[i]
		if f.branch {
			if v, ok := f.writes[name]; ok {
				return v, true
			}
		}
		if b, ok := f.vars[name]; ok {
			return b.val, true
		}
	}
	return nil, false
}

// assign rebinds a mutable name. A write that crosses a branch frame is
// captured there; the conditional merges it into the real binding on
// exit.
func (e *env) assign(name string, v value.Value) error {
	var capture *frame
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := e.frames[i]
		if f.branch && capture == nil {
			if _, ok := f.writes[name]; ok {
				f.writes[name] = v
				return nil
			}
			capture = f
		}
		if b, ok := f.vars[name]; ok {
			if !b.mutable {
				return fmt.Errorf("cannot assign to immutable %q", name)
			}
			if !types.Equal(b.val.Type(), v.Type()) {
				return fmt.Errorf("%w: assigning %s to %q of type %s",
					types.ErrTypeMismatch, v.Type(), name, b.val.Type())
			}
			if capture != nil {
				capture.writes[name] = v
				return nil
			}
			b.val = v
			return nil
		}
	}
	return fmt.Errorf("undefined name %q", name)
}

// condStack tracks the conjunction of enclosing branch selectors. The
// top entry is the selector the satisfiability-deferring gadgets get.
type condStack struct {
	sels []expr.Expression
}

func (c *condStack) active(b *builder.Builder) expr.Expression {
	if len(c.sels) == 0 {
		return b.One()
	}
	return c.sels[len(c.sels)-1]
}

func (c *condStack) push(b *builder.Builder, sel expr.Expression) {
	conj := b.Mul(c.active(b), sel)
	b.MarkBoolean(conj)
	c.sels = append(c.sels, conj)
}

func (c *condStack) pop() {
	c.sels = c.sels[:len(c.sels)-1]
}
