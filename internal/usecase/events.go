package usecase

// Outbound actions produced by the coordinator.
const (
	ActionAssigned = "game:assigned"
	ActionFull     = "game:full"
	ActionState    = "game:state"
	ActionReady    = "game:ready"
	ActionLeft     = "game:left"
)

// Event is one outbound message for a single connection. The transport
// is responsible for encoding and delivery.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// AssignedPayload tells a joining connection its slot and mark.
type AssignedPayload struct {
	Slot int    `json:"slot"`
	Mark string `json:"mark"`
}

// LeftPayload identifies the slot vacated by a disconnect.
type LeftPayload struct {
	Slot int `json:"slot"`
}
