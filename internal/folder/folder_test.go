package folder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectRole(t *testing.T) {
	cases := []struct {
		path string
		want Type
	}{
		{"INBOX", TypeInbox},
		{"Trash", TypeTrash},
		{"Deleted Items", TypeTrash},
		{"Papierkorb", TypeTrash},
		{"Spam", TypeSpam},
		{"Junk E-mail", TypeSpam},
		{"Sent Mail", TypeSent},
		{"Gesendet", TypeSent},
		{"Drafts", TypeDrafts},
		{"Brouillons", TypeDrafts},
		{"Archive", TypeArchive},
		{"[Gmail]/All Mail", TypeAll},
		{"[Gmail]/Starred", TypeStarred},
		{"[Gmail]/Important", TypeImportant},
		{"Projects/Q3", TypeFolder},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DetectRole(c.path), "path=%s", c.path)
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "inbox", TypeInbox.String())
	assert.Equal(t, "custom", TypeFolder.String())
}
