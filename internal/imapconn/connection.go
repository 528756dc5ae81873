// Package imapconn is the Connection Layer (C3): opens a TLS (implicit or
// STARTTLS) stream and authenticates, returning an authenticated session or
// a typed, phase-attributed error.
package imapconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
	"github.com/ravend/ravend/internal/config"
	"github.com/ravend/ravend/internal/logging"
)

// Session wraps an authenticated IMAP client along with its capability set.
type Session struct {
	Client       *imapclient.Client
	Capabilities imap.CapSet
}

// SupportsIDLE reports whether the server advertised the IDLE extension.
func (s *Session) SupportsIDLE() bool {
	return s.Capabilities.Has("IDLE")
}

// SupportsMove reports whether the server advertised the MOVE extension.
func (s *Session) SupportsMove() bool {
	return s.Capabilities.Has(imap.CapMove)
}

// Logout closes the session. Logout errors are intentionally swallowed
// (spec.md §9 — an open question resolved in favor of the original
// behavior): a failed LOGOUT after a completed cycle is not actionable.
func (s *Session) Logout() {
	log := logging.WithComponent("imapconn")
	if err := s.Client.Logout().Wait(); err != nil {
		log.Debug().Err(err).Msg("logout error (ignored)")
	}
	s.Client.Close()
}

// ConnectAndAuthenticate is entry point 1 (spec.md §4.3): opens a TCP
// socket, applies TLS per the account's connection type, then
// authenticates per its auth type. It is pure with respect to secrets —
// the password/access token are supplied by the caller.
func ConnectAndAuthenticate(ctx context.Context, acc config.Account, password, accessToken string) (*Session, error) {
	return connectAndAuthenticate(ctx, acc, password, accessToken, nil)
}

// ConnectForIdle is ConnectAndAuthenticate with a unilateral data handler
// wired in at construction time, which go-imap/v2 requires for a client to
// receive asynchronous EXISTS/EXPUNGE notifications while idling.
func ConnectForIdle(ctx context.Context, acc config.Account, password, accessToken string, handler *imapclient.UnilateralDataHandler) (*Session, error) {
	return connectAndAuthenticate(ctx, acc, password, accessToken, handler)
}

func connectAndAuthenticate(ctx context.Context, acc config.Account, password, accessToken string, handler *imapclient.UnilateralDataHandler) (*Session, error) {
	addr := fmt.Sprintf("%s:%d", acc.IMAPHost, acc.IMAPPort)

	var client *imapclient.Client
	var err error

	switch acc.ConnectionType {
	case config.ConnectionSSL:
		client, err = imapclient.DialTLS(addr, &imapclient.Options{TLSConfig: &tls.Config{ServerName: acc.IMAPHost}, UnilateralDataHandler: handler})
		if err != nil {
			return nil, fmt.Errorf("Failed to connect to IMAP server: %w", err)
		}
	case config.ConnectionStartTLS:
		dialer := net.Dialer{Timeout: 30 * time.Second}
		conn, dialErr := dialer.DialContext(ctx, "tcp", addr)
		if dialErr != nil {
			return nil, fmt.Errorf("Failed to connect to IMAP server: %w", dialErr)
		}
		client = imapclient.New(conn, &imapclient.Options{UnilateralDataHandler: handler})
		if err := client.StartTLS(&tls.Config{ServerName: acc.IMAPHost}).Wait(); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS handshake failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("Failed to connect to IMAP server: unsupported connection type")
	}

	switch acc.AuthType {
	case config.AuthPlain:
		if err := client.Login(acc.Email, password).Wait(); err != nil {
			client.Close()
			return nil, fmt.Errorf("IMAP login failed: %w", err)
		}
	case config.AuthOAuth2:
		blob := "user=" + acc.Email + "\x01" + "auth=Bearer " + accessToken + "\x01\x01"
		saslClient := xoauth2Client{blob: blob}
		if err := client.Authenticate(saslClient); err != nil {
			client.Close()
			return nil, fmt.Errorf("IMAP OAuth2 authentication failed: %w", err)
		}
	default:
		client.Close()
		return nil, fmt.Errorf("IMAP login failed: account has no usable auth type")
	}

	caps, err := client.Capability().Wait()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("Failed to connect to IMAP server: %w", err)
	}
	return &Session{Client: client, Capabilities: caps}, nil
}

// xoauth2Client implements sasl.Client for the XOAUTH2 mechanism with a
// pre-built initial response blob, matching spec.md §4.3's exact format.
type xoauth2Client struct {
	blob string
}

func (x xoauth2Client) Start() (mech string, ir []byte, err error) {
	return "XOAUTH2", []byte(x.blob), nil
}

func (x xoauth2Client) Next(challenge []byte) ([]byte, error) {
	// A non-empty challenge here is a server-side error response; return
	// empty to let the server fail the exchange rather than looping.
	return nil, nil
}

var _ sasl.Client = xoauth2Client{}
