package bus

import (
	"os"
	"path/filepath"

	"github.com/ravend/ravend/internal/mail"
	"github.com/ravend/ravend/internal/store"
)

func attachmentPath(filesDir string, file *store.File) string {
	return filepath.Join(filesDir, mail.DiskFilename(file.MessageID, file.FileName))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
