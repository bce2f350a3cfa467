package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"main.go", "go", true},
		{"app.ts", "typescript", true},
		{"app.tsx", "typescript", true},
		{"app.js", "javascript", true},
		{"app.mjs", "javascript", true},
		{"script.py", "python", true},
		{"lib.rs", "rust", true},
		{"main.c", "c", true},
		{"util.h", "c", true},
		{"main.cpp", "cpp", true},
		{"util.hpp", "cpp", true},
		{"App.java", "java", true},
		{"index.php", "php", true},
		{"app.rb", "ruby", true},
		{"file.txt", "", false},
		{"Makefile", "", false},
		{"path/to/file.RS", "rust", true}, // case insensitive
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguages(t *testing.T) {
	t.Parallel()
	langs := Languages()
	assert.Equal(t, []string{"c", "cpp", "go", "java", "javascript", "php", "python", "ruby", "rust", "typescript"}, langs)
	for _, lang := range langs {
		assert.True(t, Supported(lang), lang)
		assert.NotEmpty(t, ExtensionsFor(lang), lang)
	}
	assert.False(t, Supported("cobol"))
	assert.True(t, Supported("Rust"))
}

func TestExtensionsFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{".cc", ".cpp", ".cxx", ".hpp"}, ExtensionsFor("cpp"))
	assert.Equal(t, []string{".rs"}, ExtensionsFor("RUST"))
	assert.Nil(t, ExtensionsFor("cobol"))
}
