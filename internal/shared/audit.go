package shared

import "time"

// AuditLog captures who did what to which entity.
type AuditLog struct {
	ID       string         `json:"id"`
	Actor    string         `json:"actor"`
	Role     Role           `json:"role"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entityId"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}
