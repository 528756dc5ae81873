package bus

import (
	"encoding/json"

	"github.com/godbus/dbus/v5"
	"github.com/ravend/ravend/internal/action"
	"github.com/ravend/ravend/internal/logging"
)

// attachmentJSON is the shape GetMessageAttachments serializes per file
// (spec.md §6).
type attachmentJSON struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	IsInline    bool   `json:"isInline"`
	Downloaded  bool   `json:"downloaded"`
}

// DeleteAccount purges the account's Store rows and config/secrets entry,
// then requests an account reload so the worker fleet stops syncing it.
func (s *Service) DeleteAccount(id string) (bool, *dbus.Error) {
	log := logging.WithComponent("bus")
	log.Info().Str("accountId", id).Msg("DeleteAccount called")

	if err := s.store.DeleteAccountData(id); err != nil {
		log.Error().Err(err).Str("accountId", id).Msg("failed to delete account data")
		return false, nil
	}
	if err := s.accounts.DeleteAccount(id); err != nil {
		log.Error().Err(err).Str("accountId", id).Msg("failed to delete account config")
		return false, nil
	}
	for _, suffix := range []string{"-imapPassword", "-smtpPassword", "-oauthAccessToken", "-oauthRefreshToken"} {
		if err := s.secrets.Delete(id + suffix); err != nil {
			log.Warn().Err(err).Str("accountId", id).Str("key", id+suffix).Msg("failed to delete account secret")
		}
	}

	s.NotifyTableChanged("account")
	s.NotifyTableChanged("folder")
	if err := s.supervisor.ReloadAccounts(); err != nil {
		log.Warn().Err(err).Msg("failed to reload accounts after delete")
	}

	return true, nil
}

// TriggerSync posts a sync-now request for one account, or every account
// when id is empty.
func (s *Service) TriggerSync(id string) (bool, *dbus.Error) {
	logging.WithComponent("bus").Info().Str("accountId", id).Msg("TriggerSync called")
	s.supervisor.TriggerSync(id)
	return true, nil
}

// ReloadAccounts re-reads the account source and starts/stops workers.
func (s *Service) ReloadAccounts() (bool, *dbus.Error) {
	log := logging.WithComponent("bus")
	log.Info().Msg("ReloadAccounts called")
	if err := s.supervisor.ReloadAccounts(); err != nil {
		log.Error().Err(err).Msg("failed to reload accounts")
		return false, nil
	}
	return true, nil
}

// GetAttachmentPath returns the on-disk path for a downloaded attachment,
// or "" if it isn't downloaded or isn't on disk.
func (s *Service) GetAttachmentPath(fileID string) (string, *dbus.Error) {
	log := logging.WithComponent("bus")

	file, err := s.store.GetFile(fileID)
	if err != nil {
		log.Error().Err(err).Str("fileId", fileID).Msg("failed to query attachment")
		return "", nil
	}
	if file == nil || !file.Downloaded {
		return "", nil
	}

	path := attachmentPath(s.filesDir, file)
	if !fileExists(path) {
		log.Warn().Str("path", path).Msg("attachment marked downloaded but file not found")
		return "", nil
	}
	return path, nil
}

// GetMessageAttachments returns a JSON array describing every attachment
// on a message.
func (s *Service) GetMessageAttachments(messageID string) (string, *dbus.Error) {
	log := logging.WithComponent("bus")

	files, err := s.store.ListFilesForMessage(messageID)
	if err != nil {
		log.Error().Err(err).Str("messageId", messageID).Msg("failed to query attachments")
		return "[]", nil
	}

	out := make([]attachmentJSON, 0, len(files))
	for _, f := range files {
		out = append(out, attachmentJSON{
			ID: f.ID, Filename: f.FileName, ContentType: f.ContentType,
			Size: f.Size, IsInline: f.IsInline, Downloaded: f.Downloaded,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "[]", nil
	}
	return string(data), nil
}

// FetchAttachment fetches an attachment from the server, even when it is
// already downloaded, and returns its on-disk path, or "" on failure.
func (s *Service) FetchAttachment(fileID string) (string, *dbus.Error) {
	log := logging.WithComponent("bus")
	log.Info().Str("fileId", fileID).Msg("FetchAttachment called")

	path, err := s.executor.FetchAttachment(fileID, s.filesDir)
	if err != nil {
		log.Error().Err(err).Str("fileId", fileID).Msg("failed to fetch attachment")
		return "", nil
	}
	return path, nil
}

// MarkAsRead marks messages as read, returning the JSON ActionResult.
func (s *Service) MarkAsRead(ids []string) (string, *dbus.Error) {
	return s.runFlagAction("MarkAsRead", action.MarkRead, ids)
}

// MarkAsUnread marks messages as unread, returning the JSON ActionResult.
func (s *Service) MarkAsUnread(ids []string) (string, *dbus.Error) {
	return s.runFlagAction("MarkAsUnread", action.MarkUnread, ids)
}

// SetFlagged sets or clears the starred flag on messages, returning the
// JSON ActionResult.
func (s *Service) SetFlagged(ids []string, flagged bool) (string, *dbus.Error) {
	act := action.Unflag
	if flagged {
		act = action.Flag
	}
	return s.runFlagAction("SetFlagged", act, ids)
}

func (s *Service) runFlagAction(label string, act action.FlagAction, ids []string) (string, *dbus.Error) {
	logging.WithComponent("bus").Info().Str("method", label).Int("count", len(ids)).Msg("flag action called")
	result := s.executor.PerformFlagAction(act, ids)
	return resultJSON(result), nil
}

// MoveToTrash moves messages to the account's trash folder, returning the
// JSON ActionResult.
func (s *Service) MoveToTrash(ids []string) (string, *dbus.Error) {
	logging.WithComponent("bus").Info().Int("count", len(ids)).Msg("MoveToTrash called")
	result := s.executor.MoveToTrash(ids)
	return resultJSON(result), nil
}

// ReadPassword passes through to the secret-store collaborator.
func (s *Service) ReadPassword(key string) (string, *dbus.Error) {
	value, err := s.secrets.Read(key)
	if err != nil {
		return "", nil
	}
	return value, nil
}

// WritePassword passes through to the secret-store collaborator.
func (s *Service) WritePassword(key, password string) (bool, *dbus.Error) {
	if err := s.secrets.Write(key, password); err != nil {
		logging.WithComponent("bus").Error().Err(err).Str("key", key).Msg("failed to write secret")
		return false, nil
	}
	return true, nil
}

// DeletePassword passes through to the secret-store collaborator.
func (s *Service) DeletePassword(key string) (bool, *dbus.Error) {
	if err := s.secrets.Delete(key); err != nil {
		logging.WithComponent("bus").Error().Err(err).Str("key", key).Msg("failed to delete secret")
		return false, nil
	}
	return true, nil
}

func resultJSON(result action.Result) string {
	data, err := json.Marshal(result)
	if err != nil {
		return `{"succeeded":[],"failed":[]}`
	}
	return string(data)
}
