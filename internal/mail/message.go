package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"net/textproto"
	"strings"
	"time"

	"confidante-backend/internal/types"
)

// Message is a plain-text email with an optional HTML alternative.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
	Date    time.Time
}

var contactHTML = template.Must(template.New("contact").Parse(`<h3>New Contact Form Submission</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
{{- if .Subject}}
<p><strong>Subject:</strong> {{.Subject}}</p>
{{- end}}
<p><strong>Message:</strong> {{.Message}}</p>
`))

// NewContactMessage builds the envelope relayed for one contact form
// submission. Replies go straight to the visitor.
func NewContactMessage(from string, to []string, req types.ContactRequest) Message {
	subject := "New Contact Form Submission from " + req.Name
	if s := strings.TrimSpace(req.Subject); s != "" {
		subject += ": " + s
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Name: %s\nEmail: %s\n", req.Name, req.Email)
	if req.Subject != "" {
		fmt.Fprintf(&text, "Subject: %s\n", req.Subject)
	}
	fmt.Fprintf(&text, "Message: %s\n", req.Message)

	var html bytes.Buffer
	// the template only fails on a write error to a bytes.Buffer
	_ = contactHTML.Execute(&html, req)

	return Message{
		From:    from,
		To:      append([]string(nil), to...),
		ReplyTo: (&netmail.Address{Name: req.Name, Address: req.Email}).String(),
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
		Date:    time.Now(),
	}
}

// Bytes renders the message as RFC 5322 data with a multipart/alternative
// body when HTML is set.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	h := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	h("From", m.From)
	h("To", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		h("Reply-To", m.ReplyTo)
	}
	h("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	h("Date", date.Format(time.RFC1123Z))
	h("MIME-Version", "1.0")

	if m.HTML == "" {
		h("Content-Type", "text/plain; charset=utf-8")
		h("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, m.Text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	h("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")
	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", m.Text},
		{"text/html; charset=utf-8", m.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeQP(w, part.body); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeQP(w io.Writer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return err
	}
	return qp.Close()
}
