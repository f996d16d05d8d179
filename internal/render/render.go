// Package render converts model markdown into HTML for the web UI.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Raw HTML in model output is dropped; goldmark only emits it WithUnsafe.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders GitHub-flavored markdown to HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
