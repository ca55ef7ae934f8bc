// Package input reads the text to translate from files. Markdown files are
// reduced to their readable text first.
package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownExtensions = map[string]bool{
	".md": true, ".mdown": true, ".mkdn": true, ".mkd": true, ".markdown": true,
}

// ReadFile returns the text of path. Markdown is converted with PlainText;
// anything else is returned as is.
func ReadFile(path string) (string, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read input: %w", err)
	}
	if markdownExtensions[strings.ToLower(filepath.Ext(path))] {
		return PlainText(b), nil
	}
	return strings.TrimSpace(string(b)), nil
}

// PlainText extracts the prose of a markdown document: one line per block,
// with code blocks, images and raw HTML left out.
func PlainText(source []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if s := inlineText(n, source); s != "" {
				blocks = append(blocks, s)
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(blocks, "\n")
}

func inlineText(node ast.Node, source []byte) string {
	var b strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.Image, *ast.RawHTML:
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return strings.TrimSpace(b.String())
}
