package action

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/ravend/ravend/internal/imapconn"
	"github.com/ravend/ravend/internal/mail"
)

// FetchAttachment implements spec.md §4.7's on-demand attachment fetch:
// look the file up, recover its folder/uid from the owning message id,
// FETCH the body part, and write it to disk with the same atomic policy
// the sync engine uses. Returns the absolute path written.
func (e *Executor) FetchAttachment(fileID, filesDir string) (string, error) {
	file, err := e.store.GetFile(fileID)
	if err != nil {
		return "", fmt.Errorf("Database lock failed: %w", err)
	}
	if file == nil {
		return "", fmt.Errorf("Message not found")
	}

	folderPath, uid, ok := parseMessageID(file.MessageID, file.AccountID)
	if !ok {
		return "", fmt.Errorf("Message not found")
	}

	acc, found := findAccount(e.accounts, file.AccountID)
	if !found {
		return "", fmt.Errorf("Account not found")
	}

	sess, err := imapconn.ConnectWithSecrets(acc, e.secrets, e.refresher)
	if err != nil {
		return "", fmt.Errorf("IMAP STORE failed: %w", err)
	}
	defer sess.Logout()

	if _, err := sess.Client.Select(folderPath, nil).Wait(); err != nil {
		return "", fmt.Errorf("Failed to select folder: %w", err)
	}

	uidSet := imap.UIDSet{}
	uidSet.AddNum(imap.UID(uid))

	bodySection := &imap.FetchItemBodySection{Part: partPathFor(file.PartID), Peek: true}
	fetchOptions := &imap.FetchOptions{BodySection: []*imap.FetchItemBodySection{bodySection}}

	messages, err := sess.Client.Fetch(uidSet, fetchOptions).Collect()
	if err != nil {
		return "", fmt.Errorf("IMAP STORE failed: %w", err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("Message not found")
	}
	body := messages[0].FindBodySection(bodySection)
	if body == nil {
		return "", fmt.Errorf("IMAP STORE failed: body part not returned")
	}

	if decoded, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(body))); decErr == nil {
		body = decoded
	}

	path, err := writeFile(filesDir, mail.DiskFilename(file.MessageID, file.FileName), body)
	if err != nil {
		return "", fmt.Errorf("Database update failed: %w", err)
	}

	if err := e.store.MarkFileDownloaded(fileID); err != nil {
		return "", fmt.Errorf("Database update failed: %w", err)
	}
	e.notifyChanged([]string{file.MessageID})

	return path, nil
}

// parseMessageID recovers (folder_path, uid) from a message id of the
// form "{account}:{account}:{path}:{uid}" (spec.md §4.7, §9).
func parseMessageID(messageID, accountID string) (string, uint32, bool) {
	prefix := accountID + ":" + accountID + ":"
	if !strings.HasPrefix(messageID, prefix) {
		return "", 0, false
	}
	rest := messageID[len(prefix):]
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", 0, false
	}
	path := rest[:idx]
	uid64, err := strconv.ParseUint(rest[idx+1:], 10, 32)
	if err != nil {
		return "", 0, false
	}
	return path, uint32(uid64), true
}

func partPathFor(partID string) []int {
	var path []int
	for _, seg := range strings.Split(partID, ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			continue
		}
		path = append(path, n)
	}
	return path
}

// writeFile writes content to filesDir/name using a temp-file-then-rename
// sequence, matching the sync engine's attachment-write policy (spec.md §3).
func writeFile(filesDir, name string, content []byte) (string, error) {
	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return "", err
	}
	final := filepath.Join(filesDir, name)

	tmp, err := os.CreateTemp(filesDir, ".tmp-attachment-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, final); err != nil {
		return "", err
	}
	return final, nil
}
