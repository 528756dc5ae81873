// Package folder classifies IMAP mailbox paths into an abstract role used
// throughout the sync engine (selecting the inbox first, finding the trash
// folder for move actions, deciding the spam-inline-attachment policy).
package folder

import "strings"

// Type is the abstract classification of a mailbox, derived from its path.
type Type int

const (
	TypeFolder Type = iota // no special role; a plain user folder
	TypeInbox
	TypeSent
	TypeDrafts
	TypeTrash
	TypeSpam
	TypeArchive
	TypeAll
	TypeStarred
	TypeImportant
)

func (t Type) String() string {
	switch t {
	case TypeInbox:
		return "inbox"
	case TypeSent:
		return "sent"
	case TypeDrafts:
		return "drafts"
	case TypeTrash:
		return "trash"
	case TypeSpam:
		return "spam"
	case TypeArchive:
		return "archive"
	case TypeAll:
		return "all"
	case TypeStarred:
		return "starred"
	case TypeImportant:
		return "important"
	default:
		return "custom"
	}
}

// DetectRole derives a folder's role from its server path via
// case-insensitive substring matching, including localized variants and
// Gmail's "[Gmail]/…" naming convention.
func DetectRole(path string) Type {
	lower := strings.ToLower(path)

	if lower == "inbox" {
		return TypeInbox
	}

	if strings.Contains(lower, "[gmail]") || strings.Contains(lower, "[google mail]") {
		switch {
		case strings.Contains(lower, "all mail"):
			return TypeAll
		case strings.Contains(lower, "starred"):
			return TypeStarred
		case strings.Contains(lower, "important"):
			return TypeImportant
		}
	}

	switch {
	case containsAny(lower, "trash", "deleted", "papierkorb", "papelera"):
		return TypeTrash
	case containsAny(lower, "spam", "junk", "bulk"):
		return TypeSpam
	case containsAny(lower, "sent", "gesendet", "postausgang"):
		return TypeSent
	case containsAny(lower, "draft", "brouillon"):
		return TypeDrafts
	case containsAny(lower, "archive", "archiv"):
		return TypeArchive
	}

	return TypeFolder
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
