package mail

import (
	"context"
	"errors"
	"net/smtp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GmailScope grants SMTP access to a Gmail account.
const GmailScope = "https://mail.google.com/"

// NewGmailTokenSource exchanges a long-lived refresh token for access tokens,
// caching each until it expires.
func NewGmailTokenSource(ctx context.Context, clientID, clientSecret, refreshToken string) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.Google,
		Scopes:       []string{GmailScope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
}

// xoauth2Auth implements the SASL XOAUTH2 mechanism used by Gmail.
type xoauth2Auth struct {
	username string
	token    string
}

func (a *xoauth2Auth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS && !isLocalhost(server.Name) {
		return "", nil, errors.New("mail: refusing XOAUTH2 over an unencrypted connection")
	}
	resp := "user=" + a.username + "\x01auth=Bearer " + a.token + "\x01\x01"
	return "XOAUTH2", []byte(resp), nil
}

// Next answers the server's JSON error challenge with an empty response so the
// server sends its final failure code.
func (a *xoauth2Auth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return []byte{}, nil
	}
	return nil, nil
}

func isLocalhost(name string) bool {
	return name == "localhost" || name == "127.0.0.1" || name == "::1"
}
