package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/formfill/internal/page"
)

// recorder stands in for a page element and records every step it runs.
type recorder struct {
	steps []page.Step
	value string
	err   error
}

func (r *recorder) Key() string { return "input#test" }

func (r *recorder) Apply(_ context.Context, steps []page.Step, value string) error {
	if r.err != nil {
		return r.err
	}
	for _, s := range steps {
		r.steps = append(r.steps, s)
		if s.Kind == page.StepSetValue {
			r.value = value
		}
	}
	return nil
}

func TestInject_ProtocolOrder(t *testing.T) {
	el := &recorder{}
	ok := New(nil).Inject(context.Background(), el, "jane@x.com")
	require.True(t, ok)

	want := []page.Step{
		{Kind: page.StepDispatch, Event: "input"},
		{Kind: page.StepDispatch, Event: "change"},
		{Kind: page.StepDispatch, Event: "blur"},
		{Kind: page.StepSetValue},
		{Kind: page.StepDispatch, Event: "input"},
	}
	assert.Equal(t, want, el.steps)
	assert.Equal(t, "jane@x.com", el.value)
}

func TestInject_NoOps(t *testing.T) {
	in := New(nil)

	assert.False(t, in.Inject(context.Background(), nil, "x"))

	el := &recorder{}
	assert.False(t, in.Inject(context.Background(), el, ""))
	assert.Empty(t, el.steps)
}

func TestInject_FailureIsBoolean(t *testing.T) {
	in := New(nil)

	assert.False(t, in.Inject(context.Background(), &recorder{err: page.ErrDetached}, "x"))
	assert.False(t, in.Inject(context.Background(), &recorder{err: errors.New("eval failed")}, "x"))
}

type scribbler struct{ recorder }

func (s *scribbler) Apply(_ context.Context, steps []page.Step, _ string) error {
	for i := range steps {
		steps[i].Event = "scribbled"
	}
	return nil
}

func TestInject_ProtocolNotShared(t *testing.T) {
	New(nil).Inject(context.Background(), &scribbler{}, "v")
	assert.Equal(t, "input", Protocol[0].Event)
	assert.Equal(t, "blur", Protocol[2].Event)
}
