package preview

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//nolint:gochecknoglobals
var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	htmlPolicy = bluemonday.UGCPolicy()
)

// renderHTML converts a markdown body to sanitized HTML.
func renderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", errors.Wrap(err, "converting body to HTML")
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}
