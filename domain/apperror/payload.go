package apperror

// Payload is the wire form of an *Error on the request-reply bus.
type Payload struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToPayload converts err to its wire form. Internal causes are not shipped.
func ToPayload(err error) *Payload {
	if err == nil {
		return nil
	}
	e := As(err)
	return &Payload{
		Kind:    e.Kind,
		Message: e.Message,
		Details: e.Details,
	}
}

// Err rebuilds the *Error described by p. A nil payload yields nil.
func (p *Payload) Err() error {
	if p == nil {
		return nil
	}
	return &Error{Kind: p.Kind, Message: p.Message, Details: p.Details}
}
