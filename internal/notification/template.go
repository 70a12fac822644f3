package notification

import (
	"bytes"
	"html/template"
)

// SubjectPrefix is prepended to every outgoing alert subject.
const SubjectPrefix = "Pulse Kronos Alert - "

// emailTmpl is the HTML wrapper applied to every outgoing alert.
// {{.Subject}} and {{.Body}} are auto-escaped by html/template.
var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background-color:#f3f4f6;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation"
         style="background-color:#f3f4f6;padding:32px 16px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" role="presentation"
               style="max-width:600px;width:100%;">
          <tr>
            <td style="background-color:#111827;padding:24px 32px;border-radius:10px 10px 0 0;">
              <span style="font-size:18px;font-weight:700;color:#ffffff;">Pulse Kronos</span>
              <span style="float:right;font-size:11px;color:#fca5a5;letter-spacing:0.4px;">ALERT</span>
            </td>
          </tr>
          <tr>
            <td style="background-color:#1f2937;padding:14px 32px;border-left:3px solid #ef4444;">
              <p style="margin:0;font-size:15px;font-weight:600;color:#f9fafb;">{{.Subject}}</p>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:28px 32px;">
              <div style="font-size:14px;line-height:1.7;color:#374151;font-family:Menlo,Consolas,monospace;
                          white-space:pre-wrap;word-break:break-word;">{{.Body}}</div>
            </td>
          </tr>
          <tr>
            <td style="background-color:#f9fafb;padding:16px 32px;
                       border-top:1px solid #e5e7eb;border-radius:0 0 10px 10px;">
              <p style="margin:0;font-size:12px;color:#9ca3af;">
                Sent because SMTP alerting is configured for this instance.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// buildSubject prepends the standard prefix to a subject line.
func buildSubject(subject string) string {
	return SubjectPrefix + subject
}

// buildEmailHTML renders the HTML email template with the given subject and body.
func buildEmailHTML(subject, body string) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct{ Subject, Body string }{subject, body})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
