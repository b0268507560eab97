package domain

// Event is one outbound push to a live connection. Type mirrors the inbound
// event kind that caused it ("send_message", "start_discussion", ...).
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
