package oauth2

import (
	"context"
	"fmt"
	"time"

	"github.com/ravend/ravend/internal/imapconn"
	"golang.org/x/oauth2"
)

// Refresher implements imapconn.Refresher: given a provider id and a
// refresh token, it exchanges them for a fresh access token via the
// provider's token endpoint.
type Refresher struct{}

// NewRefresher builds a Refresher.
func NewRefresher() *Refresher {
	return &Refresher{}
}

// Refresh exchanges refreshToken for a new access token using the named
// provider's token endpoint.
func (r *Refresher) Refresh(providerID, refreshToken string) (imapconn.TokenResult, error) {
	provider, ok := FindByID(providerID)
	if !ok {
		return imapconn.TokenResult{}, fmt.Errorf("unknown OAuth provider: %s", providerID)
	}
	if !provider.IsValid() {
		return imapconn.TokenResult{}, fmt.Errorf("OAuth provider %s is not configured (missing client id)", provider.Name)
	}

	cfg := &oauth2.Config{
		ClientID: provider.ClientID,
		Endpoint: oauth2.Endpoint{AuthURL: provider.AuthEndpoint, TokenURL: provider.TokenEndpoint},
		Scopes:   []string{provider.Scope},
	}

	// An empty AccessToken makes oauth2.Token.Valid() report false, so
	// TokenSource refreshes immediately (a zero Expiry alone would count as
	// never expiring).
	stale := &oauth2.Token{RefreshToken: refreshToken}
	fresh, err := cfg.TokenSource(context.Background(), stale).Token()
	if err != nil {
		return imapconn.TokenResult{}, fmt.Errorf("refreshing token: %w", err)
	}

	var expiresIn int64
	if !fresh.Expiry.IsZero() {
		if d := int64(time.Until(fresh.Expiry).Seconds()); d > 0 {
			expiresIn = d
		}
	}

	return imapconn.TokenResult{AccessToken: fresh.AccessToken, ExpiresIn: expiresIn}, nil
}
