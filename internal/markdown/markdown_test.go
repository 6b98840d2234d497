package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already plain", "This file wires the HTTP server.", "This file wires the HTTP server."},
		{"emphasis and code", "**Bold** and _soft_ with `code`.", "Bold and soft with code."},
		{"heading and paragraph", "# Title\n\nBody text\ncontinues here.", "Title\n\nBody text continues here."},
		{"list", "- one\n- two\n\nafter", "one\ntwo\n\nafter"},
		{"link", "See [the docs](https://example.com) or <https://go.dev>.", "See the docs or https://go.dev."},
		{"fenced", "Intro\n\n```go\nx := 1\n```\n", "Intro\n\nx := 1"},
		{"type arguments", "The handler returns a Promise<void> and fills a List<String> with names.", "The handler returns a Promise<void> and fills a List<String> with names."},
		{"html block", "Intro\n\n<details>\nMore\n</details>\n\nDone", "Intro\n\n<details>\nMore\n</details>\n\nDone"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare code", "\nprint('hi')\n\n", "print('hi')"},
		{"fenced with language", "```python\ndef f():\n    return 1\n```", "def f():\n    return 1"},
		{"first of many", "Here you go:\n\n```go\npackage main\n```\n\n```go\npackage other\n```", "package main"},
		{"tilde fence", "~~~\nSELECT 1;\n~~~", "SELECT 1;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.in))
		})
	}
}
