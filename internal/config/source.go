package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-ini/ini"
	"github.com/ravend/ravend/internal/logging"
)

// Source implements the account-source collaborator: reload() → [Account]
// (atomic snapshot), accounts(), delete_account(id). It reads
// {config_dir}/accounts/{account_id}/account.ini; directories whose name
// begins with "." are ignored.
type Source struct {
	configDir string
	snapshot  atomic.Pointer[[]Account]
	mu        sync.Mutex // serializes Reload/DeleteAccount against each other
}

// NewSource creates an account source rooted at configDir.
func NewSource(configDir string) *Source {
	s := &Source{configDir: configDir}
	empty := []Account{}
	s.snapshot.Store(&empty)
	return s
}

// Reload re-reads every account.ini under {config_dir}/accounts and
// atomically replaces the in-memory snapshot.
func (s *Source) Reload() ([]Account, error) {
	log := logging.WithComponent("config")
	s.mu.Lock()
	defer s.mu.Unlock()

	root := filepath.Join(s.configDir, "accounts")
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		empty := []Account{}
		s.snapshot.Store(&empty)
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts directory: %w", err)
	}

	var accounts []Account
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(root, e.Name(), "account.ini")
		acc, err := readAccountIni(e.Name(), path)
		if err != nil {
			log.Warn().Err(err).Str("accountId", e.Name()).Msg("skipping unreadable account.ini")
			continue
		}
		accounts = append(accounts, acc)
	}

	s.snapshot.Store(&accounts)
	return accounts, nil
}

// Accounts returns the most recently loaded snapshot without touching disk.
func (s *Source) Accounts() []Account {
	p := s.snapshot.Load()
	if p == nil {
		return nil
	}
	return *p
}

// DeleteAccount removes an account's config directory. It does not touch
// secrets (the secret-store collaborator owns those) or the Store mirror
// (the bus surface's DeleteAccount method purges that separately).
func (s *Source) DeleteAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Join(s.configDir, "accounts", id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting account config %s: %w", id, err)
	}
	return nil
}

func readAccountIni(id, path string) (Account, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Account{}, fmt.Errorf("loading %s: %w", path, err)
	}
	sec := cfg.Section("account")

	acc := Account{
		ID:       id,
		Email:    sec.Key("email").String(),
		Name:     sec.Key("name").String(),
		IMAPHost: sec.Key("imapHost").String(),
		SMTPHost: sec.Key("smtpHost").String(),
	}

	if p, err := strconv.Atoi(sec.Key("imapPort").String()); err == nil {
		acc.IMAPPort = p
	}
	if p, err := strconv.Atoi(sec.Key("smtpPort").String()); err == nil {
		acc.SMTPPort = p
	}

	switch strings.ToLower(sec.Key("connectionType").String()) {
	case "ssl":
		acc.ConnectionType = ConnectionSSL
	case "starttls":
		acc.ConnectionType = ConnectionStartTLS
	default:
		acc.ConnectionType = ConnectionNone
	}

	switch strings.ToLower(sec.Key("authType").String()) {
	case "plain":
		acc.AuthType = AuthPlain
	case "oauth2":
		acc.AuthType = AuthOAuth2
	default:
		acc.AuthType = AuthNoAuth
	}

	acc.OAuth2ProviderID = sec.Key("oauth2ProviderId").String()
	if exp, err := strconv.ParseInt(sec.Key("tokenExpiry").String(), 10, 64); err == nil {
		acc.TokenExpiry = exp
	}

	return acc, nil
}
