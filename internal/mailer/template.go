package mailer

import (
	"bytes"
	"html/template"
)

// Church branding baked into the confirmation email.
const (
	churchName   = "Motlow Creek Baptist Church"
	programName  = "Vacation Bible School 2025 - Magnified!"
	contactEmail = "support@vbs.motlowcreekministries.com"
	contactPhone = "(864) 572-1499"
	address      = "2300 Motlow Creek Road, Campobello, SC 29322"
)

const ConfirmationSubject = "VBS Registration Confirmation - " + churchName

type ConfirmationData struct {
	GuardianFirstName string
	ChildrenNames     []string
	Code              string
}

// IsAre picks the verb for the children sentence.
func (d ConfirmationData) IsAre() string {
	if len(d.ChildrenNames) == 1 {
		return "is"
	}
	return "are"
}

func (d ConfirmationData) ChildWord() string {
	if len(d.ChildrenNames) == 1 {
		return "child"
	}
	return "children"
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>VBS Registration Confirmation</title>
</head>
<body style="margin:0;padding:0;background-color:#f3f4f6;font-family:Arial,Helvetica,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px 12px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background:#1e40af;padding:24px;text-align:center;">
<h1 style="color:#ffffff;margin:0;font-size:22px;">{{.Program}}</h1>
<p style="color:#dbeafe;margin:8px 0 0;">{{.Church}}</p>
</td></tr>
<tr><td style="padding:24px;">
<p style="font-size:16px;color:#111827;">Dear {{.Data.GuardianFirstName}},</p>
<p style="font-size:15px;color:#374151;">
Thank you for registering! Your {{.Data.ChildWord}}
<strong>{{range $i, $n := .Data.ChildrenNames}}{{if $i}}, {{end}}{{$n}}{{end}}</strong>
{{.Data.IsAre}} registered for {{.Program}}.
</p>
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#f0fdf4;border:1px solid #059669;border-radius:6px;margin:16px 0;">
<tr><td style="padding:16px;text-align:center;">
<p style="margin:0;color:#065f46;font-size:13px;">Your registration code</p>
<p style="margin:6px 0 0;color:#065f46;font-size:22px;font-weight:bold;letter-spacing:2px;">{{.Data.Code}}</p>
<p style="margin:6px 0 0;color:#047857;font-size:12px;">Show this code at check-in on the first day.</p>
</td></tr>
</table>
<p style="font-size:14px;color:#374151;">
Questions? Reach us at <a href="mailto:{{.ContactEmail}}">{{.ContactEmail}}</a> or {{.ContactPhone}}.
</p>
</td></tr>
<tr><td style="background:#f9fafb;padding:16px 24px;text-align:center;">
<p style="margin:0;color:#6b7280;font-size:12px;">{{.Church}} &middot; {{.Address}}</p>
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`))

// RenderConfirmation produces the registration confirmation HTML document.
func RenderConfirmation(data ConfirmationData) (string, error) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		Data         ConfirmationData
		Church       string
		Program      string
		ContactEmail string
		ContactPhone string
		Address      string
	}{
		Data:         data,
		Church:       churchName,
		Program:      programName,
		ContactEmail: contactEmail,
		ContactPhone: contactPhone,
		Address:      address,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
