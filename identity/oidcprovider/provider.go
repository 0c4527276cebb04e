// Package oidcprovider implements identity.Provider against a real OIDC
// issuer using the OAuth2 device authorization grant (RFC 8628).
package oidcprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-device-auth/identity"
	"github.com/jrsteele09/go-device-auth/internal/config"
	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
	"github.com/jrsteele09/go-device-auth/internal/utils"
)

const deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// Provider exchanges device codes with an OIDC issuer. One Provider serves
// many concurrent login attempts; per-attempt state lives in the pending map
// keyed by the correlation ID we hand back from StartDeviceLogin.
type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client

	lock    sync.Mutex
	pending map[string]*oauth2.DeviceAuthResponse
}

// New discovers the issuer's endpoints and builds a device-flow provider.
func New(ctx context.Context, cfg config.ProviderConfig) (*Provider, error) {
	if cfg.GetClientID() == "" {
		return nil, fmt.Errorf("[oidcprovider New] client ID is required")
	}

	oidcProvider, err := oidc.NewProvider(ctx, cfg.GetIssuerURL())
	if err != nil {
		return nil, fmt.Errorf("[oidcprovider New] failed to discover issuer: %w", err)
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID: cfg.GetClientID(),
			Endpoint: oidcProvider.Endpoint(),
			Scopes:   cfg.GetScopes(),
		},
		verifier:   oidcProvider.Verifier(&oidc.Config{ClientID: cfg.GetClientID()}),
		httpClient: http.DefaultClient,
		pending:    make(map[string]*oauth2.DeviceAuthResponse),
	}, nil
}

var _ identity.Provider = (*Provider)(nil)

// StartDeviceLogin asks the issuer for a device authorization and returns the
// user-facing code and verification URI under a fresh correlation ID.
func (p *Provider) StartDeviceLogin(ctx context.Context) (identity.DeviceAuth, error) {
	response, err := p.oauthConfig.DeviceAuth(ctx)
	if err != nil {
		return identity.DeviceAuth{}, fmt.Errorf("[StartDeviceLogin] device authorization request failed: %w", err)
	}

	correlationID := uuid.NewString()

	p.lock.Lock()
	p.pending[correlationID] = response
	p.lock.Unlock()

	verificationURI := response.VerificationURIComplete
	if verificationURI == "" {
		verificationURI = response.VerificationURI
	}

	return identity.DeviceAuth{
		CorrelationID:   correlationID,
		DeviceCode:      response.UserCode,
		VerificationURI: verificationURI,
	}, nil
}

// tokenResponse is the issuer's answer to one device-code token request.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	IDToken          string `json:"id_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// PollDeviceLogin performs exactly one token-endpoint round trip. It never
// loops: the caller owns the polling cadence.
func (p *Provider) PollDeviceLogin(ctx context.Context, correlationID string) (identity.PollResult, error) {
	p.lock.Lock()
	deviceAuth, exists := p.pending[correlationID]
	p.lock.Unlock()
	if !exists {
		return identity.PollResult{}, apperrors.ErrLoginNotFound
	}

	form := url.Values{
		"grant_type":  {deviceGrantType},
		"device_code": {deviceAuth.DeviceCode},
		"client_id":   {p.oauthConfig.ClientID},
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.oauthConfig.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return identity.PollResult{}, fmt.Errorf("[PollDeviceLogin] failed to build token request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResponse, err := p.httpClient.Do(request)
	if err != nil {
		// Network failure to the issuer is a login failure, not a retry loop.
		return identity.PollResult{State: identity.PollFailed, Reason: err.Error()}, nil
	}
	defer httpResponse.Body.Close()

	var token tokenResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&token); err != nil {
		return identity.PollResult{State: identity.PollFailed, Reason: "malformed token response"}, nil
	}

	switch token.Error {
	case "":
		// Approved; fall through to claim extraction.
	case "authorization_pending", "slow_down":
		return identity.PollResult{State: identity.PollPending}, nil
	default:
		reason := token.Error
		if token.ErrorDescription != "" {
			reason = fmt.Sprintf("%s: %s", token.Error, token.ErrorDescription)
		}
		return identity.PollResult{State: identity.PollFailed, Reason: reason}, nil
	}

	principal, err := p.principalFromTokens(ctx, token)
	if err != nil {
		return identity.PollResult{State: identity.PollFailed, Reason: err.Error()}, nil
	}

	p.lock.Lock()
	delete(p.pending, correlationID)
	p.lock.Unlock()

	return identity.PollResult{State: identity.PollSucceeded, Principal: principal}, nil
}

// principalFromTokens verifies the ID token and extracts the identity claims.
func (p *Provider) principalFromTokens(ctx context.Context, token tokenResponse) (*identity.Principal, error) {
	if token.IDToken == "" {
		return nil, fmt.Errorf("issuer returned no ID token")
	}

	idToken, err := p.verifier.Verify(ctx, token.IDToken)
	if err != nil {
		return nil, fmt.Errorf("ID token verification failed: %w", err)
	}

	var claims struct {
		Subject           string   `json:"sub"`
		ObjectID          string   `json:"oid"`
		TenantID          string   `json:"tid"`
		Email             string   `json:"email"`
		PreferredUsername string   `json:"preferred_username"`
		Groups            []string `json:"groups"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}

	userID := claims.ObjectID
	if userID == "" {
		userID = claims.Subject
	}

	email := claims.Email
	if email == "" {
		email = claims.PreferredUsername
	}

	groups := claims.Groups
	if len(groups) == 0 {
		// Some issuers only put group membership on the access token.
		groups = groupsFromAccessToken(token.AccessToken)
	}

	username := claims.PreferredUsername
	if username == "" && email != "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	return &identity.Principal{
		UserID:   userID,
		Email:    email,
		Username: username,
		TenantID: claims.TenantID,
		GroupIDs: groups,
	}, nil
}

// groupsFromAccessToken reads the groups claim off the access token without
// signature verification. The identity itself always comes from the verified
// ID token; this only supplements group membership.
func groupsFromAccessToken(accessToken string) []string {
	if accessToken == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil
	}

	rawGroups, ok := claims["groups"].([]any)
	if !ok {
		return nil
	}
	return utils.ToStringSlice(rawGroups)
}
