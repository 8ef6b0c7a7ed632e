package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/query-system/internal/model"
)

type sentOTP struct{ To, Code string }

type sentReply struct {
	To    string
	Query model.Query
}

// recorder captures every notification instead of sending it.
type recorder struct {
	mu       sync.Mutex
	otps     []sentOTP
	newQuery []model.Query
	replies  []sentReply
}

func (r *recorder) SendOTP(ctx context.Context, to, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps = append(r.otps, sentOTP{to, code})
}

func (r *recorder) NewQuery(ctx context.Context, q model.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newQuery = append(r.newQuery, q)
}

func (r *recorder) Reply(ctx context.Context, to string, q model.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, sentReply{to, q})
}

func (r *recorder) lastCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.otps) == 0 {
		return ""
	}
	return r.otps[len(r.otps)-1].Code
}

// seqIDs hands out predictable ids.
type seqIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
