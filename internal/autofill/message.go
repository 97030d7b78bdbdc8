package autofill

import (
	"context"
	"errors"
	"fmt"
)

// ActionAutofill is the message action that triggers a fill pass.
const ActionAutofill = "autofill"

// ErrUnknownAction is returned for messages with an action other than
// ActionAutofill.
var ErrUnknownAction = errors.New("autofill: unknown action")

// Persona is the record written into the page. Phone and Address are
// optional.
type Persona struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Message is an inbound trigger.
type Message struct {
	Action string  `json:"action"`
	User   Persona `json:"user"`
}

// Response acknowledges a message once the fill pass completes. Per-field
// results are not reported.
type Response struct {
	Success bool `json:"success"`
}

// Handle dispatches one inbound message.
func (e *Engine) Handle(ctx context.Context, msg Message) (Response, error) {
	if msg.Action != ActionAutofill {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}
	e.Fill(ctx, msg.User)
	return Response{Success: true}, nil
}
