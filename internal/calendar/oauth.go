package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Credentials locates the OAuth client secrets and the cached user token.
type Credentials struct {
	ClientSecretsFile string
	TokenFile         string
}

func (c Credentials) oauthConfig() (*oauth2.Config, error) {
	b, err := os.ReadFile(c.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", c.ClientSecretsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return cfg, nil
}

// AuthURL is the consent page the user opens once to authorize the server.
func (c Credentials) AuthURL() (string, error) {
	cfg, err := c.oauthConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL("studyplan", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// Exchange trades an authorization code for a token and caches it.
func (c Credentials) Exchange(ctx context.Context, code string) error {
	cfg, err := c.oauthConfig()
	if err != nil {
		return err
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to retrieve token from Google: %w", err)
	}
	return saveToken(c.TokenFile, tok)
}

func (c Credentials) client(ctx context.Context) (*http.Client, error) {
	cfg, err := c.oauthConfig()
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(c.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no calendar token at %s, run `studyplan calendar auth`: %w", c.TokenFile, err)
	}
	return cfg.Client(ctx, tok), nil
}

// NewService builds an authenticated Calendar API service.
func (c Credentials) NewService(ctx context.Context) (*gcal.Service, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Calendar service: %w", err)
	}
	return srv, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
