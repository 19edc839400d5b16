// Package content normalises post bodies to Markdown.
package content

import (
	"errors"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var ErrUnknownFormat = errors.New("unknown content format")

// ToMarkdown returns body as Markdown. An empty format means Markdown.
func ToMarkdown(format, body string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatMarkdown:
		return body, nil
	case FormatHTML:
		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(body)
		if err != nil {
			return "", fmt.Errorf("convert html: %w", err)
		}
		return markdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
