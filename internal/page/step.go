package page

// StepKind is one primitive of an injection plan.
type StepKind string

const (
	// StepDispatch dispatches a synthetic bubbling event named by Step.Event.
	StepDispatch StepKind = "dispatch"
	// StepSetValue writes the value through the prototype-level setter,
	// bypassing any setter the host page installed on the element.
	StepSetValue StepKind = "set_value"
)

// Step is one ordered instruction of an injection plan.
type Step struct {
	Kind  StepKind `json:"kind"`
	Event string   `json:"event,omitempty"`
}

// Dispatch returns a dispatch step for the named event.
func Dispatch(event string) Step {
	return Step{Kind: StepDispatch, Event: event}
}

// SetValue returns a prototype-level write step.
func SetValue() Step {
	return Step{Kind: StepSetValue}
}
