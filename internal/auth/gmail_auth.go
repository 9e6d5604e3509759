// Package auth bootstraps the OAuth2 session used for Gmail access.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig locates the OAuth client secret and the cached user token.
// Prompt, when set, receives the consent URL and must return the
// authorization code; without it a missing token is an error.
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	Prompt          func(authURL string) (string, error)
}

// NewGmailService returns a read-only Gmail client for the authorized user.
func NewGmailService(ctx context.Context, cfg GmailConfig, log *zap.Logger) (*gmail.Service, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		if cfg.Prompt == nil {
			return nil, fmt.Errorf("no gmail token at %s and no interactive prompt", cfg.TokenFile)
		}
		tok, err = tokenFromWeb(ctx, config, cfg.Prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			return nil, err
		}
		log.Info("gmail token saved", zap.String("path", cfg.TokenFile))
	} else if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return srv, nil
}

// ConsolePrompt prints the consent URL to w and reads the code from r.
func ConsolePrompt(w io.Writer, r io.Reader) func(string) (string, error) {
	return func(authURL string) (string, error) {
		fmt.Fprintf(w, "Open this link to authorize Gmail access:\n%s\nPaste the code here: ", authURL)
		var code string
		if _, err := fmt.Fscan(r, &code); err != nil {
			return "", fmt.Errorf("read authorization code: %w", err)
		}
		return code, nil
	}
}

func tokenFromWeb(ctx context.Context, config *oauth2.Config, prompt func(string) (string, error)) (*oauth2.Token, error) {
	code, err := prompt(config.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
	if err != nil {
		return nil, err
	}
	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("write oauth token: %w", err)
	}
	return nil
}
