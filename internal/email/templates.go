package email

import (
	"bytes"
	"html/template"
)

const (
	verificationSubject = "Verify your StudyFlow account"
	resetSubject        = "Reset your StudyFlow password"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f4f4f4;">
  <table width="600" cellpadding="0" cellspacing="0" align="center" style="background-color: #ffffff; border-radius: 10px; overflow: hidden;">
    <tr>
      <td style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 40px 30px; text-align: center;">
        <h1 style="margin: 0; color: #ffffff; font-size: 28px;">Welcome to StudyFlow!</h1>
      </td>
    </tr>
    <tr>
      <td style="padding: 40px 30px; color: #666666; font-size: 16px; line-height: 1.6;">
        <p>Hi <strong>{{.Username}}</strong>,</p>
        <p>Thank you for signing up for StudyFlow! To get started, please verify your email address:</p>
        <p style="text-align: center; padding: 20px 0;">
          <a href="{{.Link}}" style="display: inline-block; padding: 16px 40px; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: bold;">Verify Email Address</a>
        </p>
        <p style="font-size: 14px;">Or copy this link: {{.Link}}</p>
        <p style="font-size: 14px;">This link expires in 24 hours. If you didn't create a StudyFlow account, ignore this email.</p>
      </td>
    </tr>
  </table>
</body>
</html>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f4f4f4;">
  <table width="600" cellpadding="0" cellspacing="0" align="center" style="background-color: #ffffff; border-radius: 10px; overflow: hidden;">
    <tr>
      <td style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 40px 30px; text-align: center;">
        <h1 style="margin: 0; color: #ffffff; font-size: 28px;">Password Reset</h1>
      </td>
    </tr>
    <tr>
      <td style="padding: 40px 30px; color: #666666; font-size: 16px; line-height: 1.6;">
        <p>Hi <strong>{{.Username}}</strong>,</p>
        <p>We received a request to reset your StudyFlow password. Click the button below to choose a new one:</p>
        <p style="text-align: center; padding: 20px 0;">
          <a href="{{.Link}}" style="display: inline-block; padding: 16px 40px; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: bold;">Reset Password</a>
        </p>
        <p style="font-size: 14px;">Or copy this link: {{.Link}}</p>
        <p style="font-size: 14px;">This link expires in 1 hour. If you didn't request a reset, ignore this email.</p>
      </td>
    </tr>
  </table>
</body>
</html>
`))

type templateData struct {
	Username string
	Link     string
}

func renderTemplate(tmpl *template.Template, username, link string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{Username: username, Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
