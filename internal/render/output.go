package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Output formats understood by the engine.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatPDF      = "pdf"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown renders the named template with vars into markdown text.
func Markdown(templateName string, vars map[string]any) (string, error) {
	t, err := Lookup(templateName)
	if err != nil {
		return "", err
	}
	return t.Render(vars), nil
}

// HTML renders the markdown template with HTML-escaped variable values,
// converts it and wraps the result in the fixed document chrome.
func HTML(templateName, title string, vars map[string]any) (string, error) {
	t, err := Lookup(templateName)
	if err != nil {
		return "", err
	}
	md := t.RenderEscaped(vars, html.EscapeString)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	return wrapHTML(title, body.String()), nil
}

// JSON bypasses templating and serializes the source variables directly.
func JSON(vars map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report variables: %w", err)
	}
	return data, nil
}

// wrapHTML applies the fixed header/footer: title, metadata block, styling.
func wrapHTML(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>%s</title>
<style>
  body { font-family: 'Helvetica Neue', Arial, sans-serif; font-size: 11pt; color: #1f2430; margin: 0; }
  .report { max-width: 720px; margin: 0 auto; padding: 32px; }
  .report-meta { color: #6b7280; font-size: 9pt; border-bottom: 1px solid #e5e7eb; padding-bottom: 8px; }
  h1 { font-size: 20pt; margin-top: 12px; }
  h2 { font-size: 14pt; border-bottom: 1px solid #e5e7eb; padding-bottom: 4px; }
  table { border-collapse: collapse; width: 100%%; }
  td, th { border: 1px solid #e5e7eb; padding: 4px 8px; text-align: left; }
  .report-footer { color: #9ca3af; font-size: 8pt; margin-top: 24px; border-top: 1px solid #e5e7eb; padding-top: 8px; }
</style>
</head>
<body>
<div class="report">
<div class="report-meta">%s &middot; generated %s</div>
%s
<div class="report-footer">Automated candidate analysis report.</div>
</div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(title), time.Now().UTC().Format(time.RFC3339), body)
}
