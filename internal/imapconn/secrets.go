package imapconn

import (
	"context"
	"fmt"

	"github.com/ravend/ravend/internal/config"
	"github.com/ravend/ravend/internal/logging"
)

// SecretReader reads a named secret, returning an error if absent.
type SecretReader interface {
	Read(key string) (string, error)
}

// SecretWriter persists a named secret.
type SecretWriter interface {
	Write(key, value string) error
}

// SecretStore is the secret-store collaborator contract (spec.md §6),
// narrowed to what the connection layer needs.
type SecretStore interface {
	SecretReader
	SecretWriter
}

// TokenResult is what the OAuth refresher collaborator returns.
type TokenResult struct {
	AccessToken string
	ExpiresIn   int64 // seconds; 0 if unknown
}

// Refresher is the OAuth refresher collaborator contract (spec.md §6).
type Refresher interface {
	Refresh(providerID, refreshToken string) (TokenResult, error)
}

// ConnectWithSecrets is entry point 2 (spec.md §4.3): reads secrets via the
// secret-store collaborator, unconditionally refreshes the OAuth2 access
// token through the token collaborator before use (this path is only taken
// for one-shot actions, not long-lived workers), writes the new access
// token back, and dispatches to ConnectAndAuthenticate.
func ConnectWithSecrets(acc config.Account, secrets SecretStore, refresher Refresher) (*Session, error) {
	log := logging.WithComponent("imapconn")

	switch acc.AuthType {
	case config.AuthPlain:
		password, err := secrets.Read(acc.ID + "-imapPassword")
		if err != nil {
			return nil, fmt.Errorf("IMAP login failed: %w", err)
		}
		return connectAndAuthenticateBlocking(acc, password, "")

	case config.AuthOAuth2:
		refreshToken, err := secrets.Read(acc.ID + "-oauthRefreshToken")
		if err != nil {
			return nil, fmt.Errorf("IMAP OAuth2 authentication failed: %w", err)
		}
		result, err := refresher.Refresh(acc.OAuth2ProviderID, refreshToken)
		if err != nil {
			return nil, fmt.Errorf("IMAP OAuth2 authentication failed: %w", err)
		}
		if err := secrets.Write(acc.ID+"-oauthAccessToken", result.AccessToken); err != nil {
			log.Warn().Err(err).Str("accountId", acc.ID).Msg("failed to persist refreshed access token")
		}
		return connectAndAuthenticateBlocking(acc, "", result.AccessToken)

	default:
		return connectAndAuthenticateBlocking(acc, "", "")
	}
}

func connectAndAuthenticateBlocking(acc config.Account, password, accessToken string) (*Session, error) {
	return ConnectAndAuthenticate(context.Background(), acc, password, accessToken)
}
