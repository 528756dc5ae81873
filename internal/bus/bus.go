// Package bus is the IPC surface (spec.md §6): a D-Bus service exporting
// account, action, and secret-store methods, and emitting TableChanged /
// MessagesChanged signals for the frontend to react to.
package bus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/ravend/ravend/internal/action"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/store"
)

const (
	serviceName = "org.ravend.Daemon"
	objectPath  = dbus.ObjectPath("/org/ravend/Daemon")
	ifaceName   = "org.ravend.Daemon"
)

// ErrAnotherInstanceRunning is returned by Start when the bus name is
// already owned by another process (spec.md §6 "singleton guard").
var ErrAnotherInstanceRunning = errors.New("another instance is already running")

// AccountDeleter removes an account's config entry. The account's secrets
// are deleted by the Service itself through its Secrets collaborator.
type AccountDeleter interface {
	DeleteAccount(id string) error
}

// Supervisor is the worker-fleet collaborator the bus drives.
type Supervisor interface {
	ReloadAccounts() error
	TriggerSync(accountID string)
}

// Store is the subset of the Store the bus reads/purges directly, without
// going through the action executor (account deletion, attachment metadata
// lookups — spec.md §6).
type Store interface {
	DeleteAccountData(accountID string) error
	GetFile(id string) (*store.File, error)
	ListFilesForMessage(messageID string) ([]store.File, error)
}

// Executor is the action-executor collaborator the bus drives.
type Executor interface {
	PerformFlagAction(act action.FlagAction, ids []string) action.Result
	MoveToTrash(ids []string) action.Result
	FetchAttachment(fileID, filesDir string) (string, error)
}

// Secrets is the secret-store collaborator, including delete (not needed by
// the connection layer, so kept separate from imapconn.SecretStore).
type Secrets interface {
	Read(key string) (string, error)
	Write(key, value string) error
	Delete(key string) error
}

// Service implements the exported D-Bus interface and the
// action.Notifier/syncengine.Notifier contract used to emit its signals.
type Service struct {
	conn *dbus.Conn

	accounts   AccountDeleter
	store      Store
	executor   Executor
	supervisor Supervisor
	secrets    Secrets
	filesDir   string
}

// New builds a Service. Call Start to connect and export it.
func New(accounts AccountDeleter, st Store, executor Executor, supervisor Supervisor, secrets Secrets, filesDir string) *Service {
	return &Service{
		accounts:   accounts,
		store:      st,
		executor:   executor,
		supervisor: supervisor,
		secrets:    secrets,
		filesDir:   filesDir,
	}
}

// Start connects to the session bus, requests the service name with
// do-not-queue semantics, and exports the interface. Returns
// ErrAnotherInstanceRunning if the name is already owned.
func (s *Service) Start() error {
	log := logging.WithComponent("bus")

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}

	reply, err := conn.RequestName(serviceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("requesting bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return ErrAnotherInstanceRunning
	}

	if err := conn.Export(s, objectPath, ifaceName); err != nil {
		return fmt.Errorf("exporting interface: %w", err)
	}

	s.conn = conn
	log.Info().Str("service", serviceName).Str("path", string(objectPath)).Msg("D-Bus interface registered")
	return nil
}

// Close releases the bus name and closes the connection.
func (s *Service) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// NotifyTableChanged implements action.Notifier / syncengine.Notifier by
// emitting the TableChanged signal.
func (s *Service) NotifyTableChanged(table string) {
	s.emit("TableChanged", table)
}

// NotifyMessageChanged implements action.Notifier / syncengine.Notifier by
// emitting the MessagesChanged signal.
func (s *Service) NotifyMessageChanged(ids []string) {
	s.emit("MessagesChanged", ids)
}

func (s *Service) emit(signal string, args ...interface{}) {
	if s.conn == nil {
		return
	}
	log := logging.WithComponent("bus")
	if err := s.conn.Emit(objectPath, ifaceName+"."+signal, args...); err != nil {
		log.Warn().Err(err).Str("signal", signal).Msg("failed to emit D-Bus signal")
	}
}
