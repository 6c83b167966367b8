package queue

const (
	TypeTokenCleanup = "tokens:cleanup"
)

type TokenCleanupPayload struct {
	// Before is an RFC 3339 timestamp; rows expiring before it are removed.
	// Empty means "now" at processing time.
	Before string `json:"before,omitempty"`
}
