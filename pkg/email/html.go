package email

import (
	"bytes"
	"html/template"
	"strings"
)

var shell = template.Must(template.New("email").Parse(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2 style="color: #2563eb;">Hi {{.Name}},</h2>
{{- range .Paragraphs}}
      <p>{{.}}</p>
{{- end}}
      <br>
      <p style="color: #666; font-size: 12px; margin-top: 30px; border-top: 1px solid #eee; padding-top: 20px;">
        This email was sent by {{.SenderName}}
      </p>
    </div>
  </body>
</html>
`))

type shellData struct {
	Name       string
	Paragraphs []string
	SenderName string
}

// RenderHTML wraps a plain-text body in the HTML shell: a greeting, one
// paragraph per non-blank line and the sender footer. Text is escaped.
func RenderHTML(recipientName, body, senderName string) (string, error) {
	data := shellData{Name: recipientName, SenderName: senderName}

	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			data.Paragraphs = append(data.Paragraphs, line)
		}
	}

	var buf bytes.Buffer
	if err := shell.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
