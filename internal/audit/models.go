// Package audit captures who changed what in the directory. Soft deletion
// exists for the audit trail; this package is where the trail is written.
package audit

import "time"

// Action names a directory mutation or lifecycle transition.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionDeactivate Action = "deactivate"
	ActionReactivate Action = "reactivate"
	ActionSoftDelete Action = "soft_delete"
	ActionSignIn     Action = "sign_in"
)

// Event is one audit record. It is transport-agnostic so the same shape flows
// to the in-process store and to Kafka.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	// Actor is the email of the administrator who performed the action.
	Actor  string `json:"actor"`
	Action Action `json:"action"`
	// Entity is the collection the action touched; Key the record key.
	Entity string `json:"entity"`
	Key    string `json:"key"`
	Detail string `json:"detail,omitempty"`
}
