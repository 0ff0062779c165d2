// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// RegistrationEmailData holds data for the registration confirmation
// email that carries the entry-pass QR image.
type RegistrationEmailData struct {
	SiteName    string
	StudentName string
	EventTitle  string
	EventVenue  string
	EventDate   string // preformatted, e.g. "Sat, 14 Mar 2026"
	EventTime   string // e.g. "10:00"
	QRDataURI   string // PNG data URI of the pass
}

// BuildRegistrationEmail creates the confirmation email with both HTML
// and text bodies.
func BuildRegistrationEmail(data RegistrationEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("You're registered for %s", data.EventTitle),
		TextBody: buildRegistrationText(data),
		HTMLBody: buildRegistrationHTML(data),
	}
}

func buildRegistrationText(data RegistrationEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.StudentName))
	buf.WriteString(fmt.Sprintf("Your registration for %s is confirmed.\n\n", data.EventTitle))
	buf.WriteString(fmt.Sprintf("When: %s, %s\n", data.EventDate, data.EventTime))
	buf.WriteString(fmt.Sprintf("Where: %s\n\n", data.EventVenue))
	buf.WriteString("Open this email in an HTML-capable client to see your entry pass QR code,\n")
	buf.WriteString("or show your pass from the app at the event desk.\n")
	return buf.String()
}

func buildRegistrationHTML(data RegistrationEmailData) string {
	tmpl := template.Must(template.New("registration").Parse(registrationHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const registrationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Registration Confirmed</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.StudentName}}, your registration for
                <strong>{{.EventTitle}}</strong> is confirmed.
              </p>

              <p style="margin: 0 0 24px; font-size: 14px; color: #6b7280;">
                {{.EventDate}}, {{.EventTime}} &middot; {{.EventVenue}}
              </p>

              <!-- Entry pass -->
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <img src="{{.QRDataURI}}" alt="Entry pass QR code" width="256" height="256" style="display: inline-block; max-width: 100%;">
              </div>

              <p style="margin: 0; font-size: 13px; color: #9ca3af; text-align: center;">
                Show this QR code at the event desk to check in.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You are receiving this because you registered for an event on {{.SiteName}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
