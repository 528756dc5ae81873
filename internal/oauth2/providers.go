// Package oauth2 is the OAuth2 refresher collaborator (spec.md §6): a
// provider registry keyed by id or account email domain, and a token
// refresher built on golang.org/x/oauth2's TokenSource renewal.
package oauth2

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"
)

//go:embed providers.json
var providersJSON []byte

// Provider describes one OAuth2 identity provider's endpoints.
type Provider struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ClientID      string   `json:"clientId"`
	AuthEndpoint  string   `json:"authEndpoint"`
	TokenEndpoint string   `json:"tokenEndpoint"`
	Scope         string   `json:"scope"`
	Domains       []string `json:"domains"`
}

// IsValid reports whether the provider has the endpoints and client id
// needed to actually perform a refresh.
func (p Provider) IsValid() bool {
	return p.ClientID != "" && p.AuthEndpoint != "" && p.TokenEndpoint != ""
}

type providersConfig struct {
	Providers []Provider `json:"providers"`
}

var (
	loadOnce  sync.Once
	providers []Provider
)

func allProviders() []Provider {
	loadOnce.Do(func() {
		var cfg providersConfig
		if err := json.Unmarshal(providersJSON, &cfg); err != nil {
			panic("oauth2: failed to parse embedded providers.json: " + err.Error())
		}
		providers = cfg.Providers
	})
	return providers
}

// FindByID looks a provider up by its id, the value stored as
// Account.OAuth2ProviderID.
func FindByID(id string) (Provider, bool) {
	for _, p := range allProviders() {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// FindByEmail derives a provider from an account email's domain.
func FindByEmail(email string) (Provider, bool) {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return Provider{}, false
	}
	domain := strings.ToLower(parts[1])
	for _, p := range allProviders() {
		for _, d := range p.Domains {
			d = strings.ToLower(d)
			if domain == d || strings.HasSuffix(domain, "."+d) {
				return p, true
			}
		}
	}
	return Provider{}, false
}
