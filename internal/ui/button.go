package ui

// DispatchKind tells the client how a button's event is routed.
type DispatchKind string

const (
	// DispatchSelf routes the event back to the owning component.
	DispatchSelf DispatchKind = "dispatch"
	// DispatchTo routes the event to the named component.
	DispatchTo DispatchKind = "dispatchTo"
	// DispatchCall invokes a method on the owning component.
	DispatchCall DispatchKind = "call"
	// DispatchNavigate follows Href without a full reload.
	DispatchNavigate DispatchKind = "navigate"
)

// Button is a rendered affordance. Buttons the gate denies are never built.
type Button struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Icon    string         `json:"icon,omitempty"`
	TestID  string         `json:"testId,omitempty"`
	Kind    DispatchKind   `json:"kind"`
	Target  string         `json:"target,omitempty"`
	Event   string         `json:"event,omitempty"`
	Method  string         `json:"method,omitempty"`
	Href    string         `json:"href,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Variant string         `json:"variant,omitempty"`
	// VisibleWhenSelected hides the button until at least one row is checked.
	VisibleWhenSelected bool `json:"visibleWhenSelected,omitempty"`
}
