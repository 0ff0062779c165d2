// internal/app/system/mailer/mailer.go
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Email is one outbound message. TextBody is the fallback for clients
// that do not render HTML.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends email over SMTP. Point it at Mailpit (localhost:1025)
// in development; any authenticated relay works in production.
type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
	log      *zap.Logger
}

// New constructs a Mailer. An empty user disables SMTP auth (local
// dev relays such as Mailpit).
func New(host string, port int, user, pass, from, fromName string, logger *zap.Logger) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		user:     user,
		pass:     pass,
		from:     from,
		fromName: fromName,
		log:      logger,
	}
}

// Send delivers one message synchronously. Callers that must not block
// on delivery go through the notify dispatcher instead.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return fmt.Errorf("email has no recipient")
	}

	msg := m.buildMessage(e)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{e.To}, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", e.To, err)
	}

	m.log.Info("email sent",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}

// buildMessage assembles a multipart/alternative MIME message with
// text and HTML bodies.
func (m *Mailer) buildMessage(e Email) []byte {
	boundary := "eventra-" + uuid.NewString()

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.fromName, m.from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	fmt.Fprintf(&b, "Message-ID: <%s@eventra>\r\n", uuid.NewString())
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(e.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
