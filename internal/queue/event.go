// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// EmailEvent is one outbound email, published by the API server and
// delivered by the mailer process.
type EmailEvent struct {
    To        string    `json:"to"`
    Subject   string    `json:"subject"`
    Body      string    `json:"body"`
    CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the event can be delivered at all.
func (e EmailEvent) Valid() bool {
    return e.To != "" && e.Subject != ""
}
