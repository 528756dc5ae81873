package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippetShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "hello world", Snippet("hello world"))
}

func TestSnippetBound(t *testing.T) {
	long := strings.Repeat("word ", 60)
	s := Snippet(long)
	assert.LessOrEqual(t, len([]rune(s)), 153)
	assert.True(t, strings.HasSuffix(s, "…"))
}

func TestSnippetCollapsesControlCharacters(t *testing.T) {
	s := Snippet("hello\n\tworld\r\n")
	assert.Equal(t, "hello world", s)
	for _, r := range s {
		assert.GreaterOrEqual(t, r, rune(0x20))
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "attachment", SanitizeFilename("   "))
}

func TestDefaultFilename(t *testing.T) {
	assert.Equal(t, "image_1.png", DefaultFilename("image/png", 1))
	assert.Equal(t, "attachment_3", DefaultFilename("application/x-unknown", 3))
}

func TestDiskFilename(t *testing.T) {
	assert.Equal(t, "acc_INBOX_5_report.pdf", DiskFilename("acc:INBOX:5", "report.pdf"))
}

func TestReplaceCIDURLs(t *testing.T) {
	html := `<img src="cid:abc123">`
	out := ReplaceCIDURLs(html, map[string]string{"abc123": "file:///tmp/x.png"})
	assert.Equal(t, `<img src="file:///tmp/x.png">`, out)
}
