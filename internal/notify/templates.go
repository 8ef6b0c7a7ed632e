package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/iliyamo/query-system/internal/model"
)

// Message is a rendered email.
type Message struct {
	Subject string
	Body    string
}

var (
	otpTemplate = template.Must(template.New("otp").Parse(
		"Your OTP is: {{.Code}}\n\nThis OTP is valid for {{.Minutes}} minutes."))

	newQueryTemplate = template.Must(template.New("new_query").Parse(
		`A new query has been submitted.

Query ID: {{.ID}}
User ID: {{.UserID}}
Category: {{.Category}}
Priority: {{.Priority}}

Query:
{{.OriginalQuery}}`))

	replyTemplate = template.Must(template.New("reply").Parse(
		`Your query has been answered.

Query ID: {{.ID}}

Admin Reply:
{{.Reply}}`))
)

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// the templates are fixed and their inputs are plain strings
		panic(fmt.Sprintf("render %s: %v", t.Name(), err))
	}
	return buf.String()
}

// OTPMessage renders the one-time code email.
func OTPMessage(code string, ttl time.Duration) Message {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return Message{
		Subject: "OTP Verification",
		Body: render(otpTemplate, struct {
			Code    string
			Minutes int
		}{code, minutes}),
	}
}

// NewQueryMessage renders the administrator alert for a submitted query.
func NewQueryMessage(q model.Query) Message {
	return Message{
		Subject: "New Query Submitted",
		Body:    render(newQueryTemplate, q),
	}
}

// ReplyMessage renders the owner notification for a resolved query.
func ReplyMessage(q model.Query) Message {
	reply := ""
	if q.AdminReply != nil {
		reply = *q.AdminReply
	}
	return Message{
		Subject: fmt.Sprintf("Reply to Your Query (ID: %s)", q.ID),
		Body: render(replyTemplate, struct {
			ID    string
			Reply string
		}{q.ID, reply}),
	}
}
