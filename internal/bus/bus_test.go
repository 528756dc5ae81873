package bus

import (
	"errors"
	"testing"

	"github.com/ravend/ravend/internal/action"
	"github.com/ravend/ravend/internal/store"
)

type fakeAccounts struct {
	deleteErr error
	deletedID string
}

func (f *fakeAccounts) DeleteAccount(id string) error {
	f.deletedID = id
	return f.deleteErr
}

type fakeStore struct {
	deleteDataErr error
	files         map[string]*store.File
	byMessage     map[string][]store.File
}

func (f *fakeStore) DeleteAccountData(accountID string) error { return f.deleteDataErr }

func (f *fakeStore) GetFile(id string) (*store.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, nil
	}
	return file, nil
}

func (f *fakeStore) ListFilesForMessage(messageID string) ([]store.File, error) {
	return f.byMessage[messageID], nil
}

type fakeExecutor struct {
	flagResult      action.Result
	trashResult     action.Result
	attachmentPath  string
	attachmentErr   error
	lastFlagAction  action.FlagAction
	lastFlagIDs     []string
	lastTrashIDs    []string
}

func (f *fakeExecutor) PerformFlagAction(act action.FlagAction, ids []string) action.Result {
	f.lastFlagAction = act
	f.lastFlagIDs = ids
	return f.flagResult
}

func (f *fakeExecutor) MoveToTrash(ids []string) action.Result {
	f.lastTrashIDs = ids
	return f.trashResult
}

func (f *fakeExecutor) FetchAttachment(fileID, filesDir string) (string, error) {
	return f.attachmentPath, f.attachmentErr
}

type fakeSupervisor struct {
	reloadErr      error
	reloaded       bool
	lastTriggerID  string
	triggerCalled  bool
}

func (f *fakeSupervisor) ReloadAccounts() error {
	f.reloaded = true
	return f.reloadErr
}

func (f *fakeSupervisor) TriggerSync(accountID string) {
	f.triggerCalled = true
	f.lastTriggerID = accountID
}

type fakeSecrets struct {
	values    map[string]string
	writeErr  error
	deleteErr error
}

func (f *fakeSecrets) Read(key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeSecrets) Write(key, value string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

func (f *fakeSecrets) Delete(key string) error { return f.deleteErr }

func newTestService() (*Service, *fakeAccounts, *fakeStore, *fakeExecutor, *fakeSupervisor, *fakeSecrets) {
	accounts := &fakeAccounts{}
	st := &fakeStore{files: map[string]*store.File{}, byMessage: map[string][]store.File{}}
	executor := &fakeExecutor{}
	supervisor := &fakeSupervisor{}
	secrets := &fakeSecrets{values: map[string]string{}}
	svc := New(accounts, st, executor, supervisor, secrets, "/tmp/ravend-files")
	return svc, accounts, st, executor, supervisor, secrets
}

func TestDeleteAccountSucceedsAndReloadsFleet(t *testing.T) {
	svc, accounts, _, _, supervisor, _ := newTestService()
	ok, dbusErr := svc.DeleteAccount("acc1")
	if dbusErr != nil || !ok {
		t.Fatalf("DeleteAccount() = (%v, %v), want (true, nil)", ok, dbusErr)
	}
	if accounts.deletedID != "acc1" {
		t.Errorf("expected account config deletion for acc1, got %q", accounts.deletedID)
	}
	if !supervisor.reloaded {
		t.Error("expected ReloadAccounts to be called after delete")
	}
}

func TestDeleteAccountReturnsFalseOnStoreError(t *testing.T) {
	svc, _, st, _, _, _ := newTestService()
	st.deleteDataErr = errors.New("db error")
	ok, dbusErr := svc.DeleteAccount("acc1")
	if dbusErr != nil {
		t.Fatalf("expected nil *dbus.Error, got %v", dbusErr)
	}
	if ok {
		t.Error("expected DeleteAccount to report failure when the store purge fails")
	}
}

func TestDeleteAccountReturnsFalseOnConfigError(t *testing.T) {
	svc, accounts, _, _, _, _ := newTestService()
	accounts.deleteErr = errors.New("config error")
	ok, _ := svc.DeleteAccount("acc1")
	if ok {
		t.Error("expected DeleteAccount to report failure when config deletion fails")
	}
}

func TestTriggerSyncDelegatesToSupervisor(t *testing.T) {
	svc, _, _, _, supervisor, _ := newTestService()
	ok, err := svc.TriggerSync("acc1")
	if err != nil || !ok {
		t.Fatalf("TriggerSync() = (%v, %v), want (true, nil)", ok, err)
	}
	if !supervisor.triggerCalled || supervisor.lastTriggerID != "acc1" {
		t.Error("expected TriggerSync to delegate to the supervisor with the given id")
	}
}

func TestReloadAccountsReportsSupervisorError(t *testing.T) {
	svc, _, _, _, supervisor, _ := newTestService()
	supervisor.reloadErr = errors.New("reload failed")
	ok, _ := svc.ReloadAccounts()
	if ok {
		t.Error("expected ReloadAccounts to report failure when the supervisor errors")
	}
}

func TestGetAttachmentPathReturnsEmptyWhenNotDownloaded(t *testing.T) {
	svc, _, st, _, _, _ := newTestService()
	st.files["file1"] = &store.File{ID: "file1", Downloaded: false}
	path, err := svc.GetAttachmentPath("file1")
	if err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path for undownloaded attachment, got %q", path)
	}
}

func TestGetAttachmentPathReturnsEmptyWhenFileMissing(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	path, _ := svc.GetAttachmentPath("does-not-exist")
	if path != "" {
		t.Errorf("expected empty path for unknown file id, got %q", path)
	}
}

func TestGetMessageAttachmentsReturnsJSONArray(t *testing.T) {
	svc, _, st, _, _, _ := newTestService()
	st.byMessage["msg1"] = []store.File{
		{ID: "f1", FileName: "a.pdf", ContentType: "application/pdf", Size: 100, Downloaded: true},
	}
	data, err := svc.GetMessageAttachments("msg1")
	if err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if data == "[]" || data == "" {
		t.Errorf("expected non-empty JSON array, got %q", data)
	}
}

func TestGetMessageAttachmentsReturnsEmptyArrayWhenNone(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	data, _ := svc.GetMessageAttachments("unknown-message")
	if data != "[]" {
		t.Errorf("expected \"[]\" for a message with no attachments, got %q", data)
	}
}

func TestFetchAttachmentDelegatesToExecutor(t *testing.T) {
	svc, _, _, executor, _, _ := newTestService()
	executor.attachmentPath = "/tmp/ravend-files/a.pdf"
	path, err := svc.FetchAttachment("f1")
	if err != nil || path != "/tmp/ravend-files/a.pdf" {
		t.Errorf("FetchAttachment() = (%q, %v), want (%q, nil)", path, err, "/tmp/ravend-files/a.pdf")
	}
}

func TestFetchAttachmentReturnsEmptyOnExecutorError(t *testing.T) {
	svc, _, _, executor, _, _ := newTestService()
	executor.attachmentErr = errors.New("imap error")
	path, err := svc.FetchAttachment("f1")
	if err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path on executor failure, got %q", path)
	}
}

func TestMarkAsReadAndUnreadDelegateCorrectFlagAction(t *testing.T) {
	svc, _, _, executor, _, _ := newTestService()

	if _, err := svc.MarkAsRead([]string{"m1"}); err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if executor.lastFlagAction != action.MarkRead {
		t.Errorf("expected MarkRead, got %v", executor.lastFlagAction)
	}

	if _, err := svc.MarkAsUnread([]string{"m1"}); err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if executor.lastFlagAction != action.MarkUnread {
		t.Errorf("expected MarkUnread, got %v", executor.lastFlagAction)
	}
}

func TestSetFlaggedChoosesFlagOrUnflag(t *testing.T) {
	svc, _, _, executor, _, _ := newTestService()

	if _, err := svc.SetFlagged([]string{"m1"}, true); err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if executor.lastFlagAction != action.Flag {
		t.Errorf("expected Flag, got %v", executor.lastFlagAction)
	}

	if _, err := svc.SetFlagged([]string{"m1"}, false); err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if executor.lastFlagAction != action.Unflag {
		t.Errorf("expected Unflag, got %v", executor.lastFlagAction)
	}
}

func TestMoveToTrashReturnsResultJSON(t *testing.T) {
	svc, _, _, executor, _, _ := newTestService()
	executor.trashResult = action.Result{Succeeded: []string{"m1"}}
	data, err := svc.MoveToTrash([]string{"m1"})
	if err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if data == "" {
		t.Error("expected non-empty JSON result")
	}
}

func TestPasswordRoundTripThroughSecrets(t *testing.T) {
	svc, _, _, _, _, secrets := newTestService()

	ok, err := svc.WritePassword("acc1/password", "hunter2")
	if err != nil || !ok {
		t.Fatalf("WritePassword() = (%v, %v), want (true, nil)", ok, err)
	}

	value, err := svc.ReadPassword("acc1/password")
	if err != nil || value != "hunter2" {
		t.Fatalf("ReadPassword() = (%q, %v), want (%q, nil)", value, err, "hunter2")
	}

	ok, err = svc.DeletePassword("acc1/password")
	if err != nil || !ok {
		t.Fatalf("DeletePassword() = (%v, %v), want (true, nil)", ok, err)
	}
	_ = secrets
}

func TestReadPasswordReturnsEmptyWhenMissing(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	value, err := svc.ReadPassword("does-not-exist")
	if err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty string for missing secret, got %q", value)
	}
}

func TestWritePasswordReturnsFalseOnError(t *testing.T) {
	svc, _, _, _, _, secrets := newTestService()
	secrets.writeErr = errors.New("keyring unavailable")
	ok, err := svc.WritePassword("acc1/password", "hunter2")
	if err != nil {
		t.Fatalf("unexpected dbus error: %v", err)
	}
	if ok {
		t.Error("expected WritePassword to report failure when the secret store errors")
	}
}

func TestNotifyMethodsAreNoopsBeforeStart(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	// conn is nil until Start succeeds; emitting must not panic.
	svc.NotifyTableChanged("account")
	svc.NotifyMessageChanged([]string{"m1"})
}

func TestCloseIsNoopBeforeStart(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	if err := svc.Close(); err != nil {
		t.Errorf("Close() before Start() should be a no-op, got %v", err)
	}
}
