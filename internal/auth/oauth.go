package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

var ErrNoIDToken = errors.New("oauth2 token contains no id_token")

// GoogleAuth wraps the OIDC provider for the Google sign-in flow:
// consent URL generation, code exchange and ID token verification.
type GoogleAuth struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
}

func NewGoogleAuth(
	ctx context.Context,
	clientID, clientSecret, redirectURL string,
	httpClient *http.Client,
) (*GoogleAuth, error) {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	return &GoogleAuth{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier:   provider.Verifier(&oidc.Config{ClientID: clientID}),
		httpClient: httpClient,
	}, nil
}

func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.oauthConfig.AuthCodeURL(state)
}

// ExchangeCode trades the authorization code for tokens, verifies the
// contained ID token, and returns the user profile from its claims.
func (g *GoogleAuth) ExchangeCode(ctx context.Context, code string) (*User, error) {
	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}

	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, ErrNoIDToken
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	var claims struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id token claims: %w", err)
	}

	userID := claims.Email
	if userID == "" {
		userID = claims.Sub
	}

	return &User{
		ID:      userID,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
