package model

import "time"

// Priority is the triage tier of a query.
type Priority string

const (
    PriorityLow    Priority = "LOW"
    PriorityMedium Priority = "MEDIUM"
    PriorityHigh   Priority = "HIGH"
)

// Status is the lifecycle state of a query.  Only NEW and RESOLVED are ever
// written; the read flag is tracked separately.
type Status string

const (
    StatusNew      Status = "NEW"
    StatusResolved Status = "RESOLVED"
)

// Query represents a row in the `queries` table.
//
// Answered, Status == RESOLVED, AdminReply != nil and RepliedAt != nil always
// change together in the resolution transition.  Version is bumped by the
// store on every successful update and is used to detect concurrent writers.
type Query struct {
    ID            string     `json:"queryId"`
    UserID        string     `json:"userId"`
    OriginalQuery string     `json:"originalQuery"`
    Category      string     `json:"category"`
    Priority      Priority   `json:"priority"`
    Status        Status     `json:"status"`
    Answered      bool       `json:"answered"`
    IsRead        bool       `json:"isRead"`
    AdminReply    *string    `json:"adminReply"`
    CreatedAt     time.Time  `json:"createdAt"`
    RepliedAt     *time.Time `json:"repliedAt"`
    Version       int64      `json:"-"`
}

// Resolve applies the resolution transition in place.  The read flag is reset
// so the owner sees the new reply as unread.
func (q *Query) Resolve(reply string, at time.Time) {
    q.AdminReply = &reply
    q.Answered = true
    q.Status = StatusResolved
    q.IsRead = false
    q.RepliedAt = &at
}

// Clone returns a deep copy of q.
func (q Query) Clone() Query {
    out := q
    if q.AdminReply != nil {
        r := *q.AdminReply
        out.AdminReply = &r
    }
    if q.RepliedAt != nil {
        t := *q.RepliedAt
        out.RepliedAt = &t
    }
    return out
}
