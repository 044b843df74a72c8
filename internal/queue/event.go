// Package queue defines the auth audit events exchanged over RabbitMQ and
// the consumer that writes them to the audit log.
package queue

import "time" // timeouts and clocks

// AuthEventsQueue is the durable queue carrying AuthEvent messages.
const AuthEventsQueue = "auth.events"

// AuthEventType names what happened.
type AuthEventType string

const (
    EventLoginSucceeded AuthEventType = "login.succeeded"
    EventLoginFailed    AuthEventType = "login.failed"
    EventLoginLocked    AuthEventType = "login.locked"
    EventLoginForbidden AuthEventType = "login.forbidden"
    EventLogout         AuthEventType = "logout"
)

// AuthEvent is published for every login outcome and logout.  It never
// carries credentials or tokens.
type AuthEvent struct {
    Type       AuthEventType `json:"type"`
    Identifier string        `json:"identifier,omitempty"` // email or username as submitted
    UserID     string        `json:"user_id,omitempty"`
    IP         string        `json:"ip,omitempty"`
    UserAgent  string        `json:"user_agent,omitempty"`
    Reason     string        `json:"reason,omitempty"`
    OccurredAt time.Time     `json:"occurred_at"`
}
