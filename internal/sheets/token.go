package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope for the values API. Read-only access is not enough: every domain
// service writes.
const spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// ServiceAccountTokenProvider builds an AccessTokenProvider from a Google
// service-account key file. The token source caches and refreshes tokens
// internally; each call hands back the current valid bearer token.
func ServiceAccountTokenProvider(ctx context.Context, keyFile string) (AccessTokenProvider, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, spreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	source := oauth2.ReuseTokenSource(nil, cfg.TokenSource(ctx))
	return func(ctx context.Context) (string, error) {
		token, err := source.Token()
		if err != nil {
			return "", fmt.Errorf("fetch access token: %w", err)
		}
		return token.AccessToken, nil
	}, nil
}

// StaticTokenProvider returns the same token on every call. Used by tests and
// by deployments that terminate auth elsewhere (e.g. a local API proxy).
func StaticTokenProvider(token string) AccessTokenProvider {
	return func(context.Context) (string, error) {
		return token, nil
	}
}
