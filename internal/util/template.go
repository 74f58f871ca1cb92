package util

import (
	"bytes"
	"strings"
	"text/template"
)

// RenderTemplate substitutes {{.Key}} markers in a prompt template from the
// given values. Text without markers is returned as-is without parsing.
// Lives in internal to avoid committing to public API stability prematurely.
func RenderTemplate(text string, values map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
