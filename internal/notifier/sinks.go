package notifier

import (
	"context"
	"fmt"
	"io"
	"net/smtp"
	"strings"
	"tildes-client/internal/scrapers/tildes"
	"tildes-client/lib/htmlutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jordan-wright/email"
)

// Summary is a notification rendered as plain text.
type Summary struct {
	Heading string
	Author  string
	Text    string
	Link    string
}

func Summarize(n tildes.Notification) Summary {
	author := n.Comment.User
	if author == "" {
		author = "[removed]"
	}
	return Summary{
		Heading: htmlutil.PlainText(n.Heading),
		Author:  author,
		Text:    htmlutil.PlainText(n.Comment.Body),
		Link:    n.Comment.Link,
	}
}

// WriterSink prints notifications as a table.
type WriterSink struct {
	Out io.Writer
}

func (s WriterSink) Deliver(ctx context.Context, notifications []tildes.Notification) error {
	t := table.NewWriter()
	t.SetOutputMirror(s.Out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Heading", "Author", "Comment", "Link"})
	for _, n := range notifications {
		summary := Summarize(n)
		t.AppendRow(table.Row{summary.Heading, summary.Author, truncate(summary.Text, 80), summary.Link})
	}
	t.Render()
	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// EmailSink sends one e-mail per delivery.
type EmailSink struct {
	Smtp SmtpConfig
	To   []string

	// send defaults to sending over smtp, it is replaced in tests.
	send func(mail *email.Email) error
}

func NewEmailSink(config SmtpConfig, to []string) EmailSink {
	return EmailSink{Smtp: config, To: to}
}

func (s EmailSink) compose(notifications []tildes.Notification) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Tildes <%s>", s.Smtp.EmailAddress)
	mail.To = s.To
	if len(notifications) == 1 {
		mail.Subject = "1 new notification on Tildes"
	} else {
		mail.Subject = fmt.Sprintf("%d new notifications on Tildes", len(notifications))
	}

	var body strings.Builder
	for i, n := range notifications {
		if i > 0 {
			body.WriteString("\n\n")
		}
		summary := Summarize(n)
		fmt.Fprintf(&body, "%s\n%s wrote:\n%s\n%s", summary.Heading, summary.Author, summary.Text, summary.Link)
	}
	mail.Text = []byte(body.String())
	return mail
}

func (s EmailSink) smtpSend(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", s.Smtp.Server, s.Smtp.Port)
	err := mail.Send(addr, smtp.PlainAuth("", s.Smtp.EmailAddress, s.Smtp.Password, s.Smtp.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}

func (s EmailSink) Deliver(ctx context.Context, notifications []tildes.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	mail := s.compose(notifications)
	send := s.send
	if send == nil {
		send = s.smtpSend
	}
	return send(mail)
}
