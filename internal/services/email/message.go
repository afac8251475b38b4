// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Message is a composed email with a plain text part and an optional HTML alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Content is the structured body both message parts are rendered from.
type Content struct {
	Paragraphs []string
	Code       string // shown prominently, e.g. a PIN
	Link       string
	Footer     []string
}

var htmlLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.5; color: #222;">
{{- range .Paragraphs}}
<p>{{.}}</p>
{{- end}}
{{- if .Code}}
<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px; font-family: monospace;">{{.Code}}</p>
{{- end}}
{{- if .Link}}
<p><a href="{{.Link}}">{{.Link}}</a></p>
{{- end}}
{{- range .Footer}}
<p style="color: #666; font-size: 13px;">{{.}}</p>
{{- end}}
</body>
</html>
`))

// NewMessage renders content into a multipart message.
func NewMessage(to, subject string, c Content) (Message, error) {
	var html bytes.Buffer
	if err := htmlLayout.Execute(&html, c); err != nil {
		return Message{}, fmt.Errorf("rendering html body: %w", err)
	}

	return Message{
		To:      to,
		Subject: subject,
		Text:    renderText(c),
		HTML:    html.String(),
	}, nil
}

func renderText(c Content) string {
	blocks := make([]string, 0, len(c.Paragraphs)+len(c.Footer)+2)
	blocks = append(blocks, c.Paragraphs...)
	if c.Code != "" {
		blocks = append(blocks, "    "+c.Code)
	}
	if c.Link != "" {
		blocks = append(blocks, c.Link)
	}
	blocks = append(blocks, c.Footer...)
	return strings.Join(blocks, "\n\n") + "\n"
}
