package session

import (
	"context"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/voxbridge-ai/voxbridge/pkg/relay"
)

// DefaultTokenScope is the OAuth scope used when minting bearer tokens for
// the upstream voice-live endpoint.
const DefaultTokenScope = "https://cognitiveservices.azure.com/.default"

// TokenProvider mints short-lived bearer tokens for the upstream connection.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Credentials selects how the upstream handshake is authenticated: a static
// API key takes precedence, otherwise a bearer token is fetched per connect.
type Credentials struct {
	APIKey string
	Tokens TokenProvider
}

// Header builds the auth header for the upstream dial.
func (c Credentials) Header(ctx context.Context) (http.Header, error) {
	h := http.Header{}
	if c.APIKey != "" {
		h.Set("api-key", c.APIKey)
		return h, nil
	}
	if c.Tokens == nil {
		return nil, relay.NewInvalidArgumentError("no upstream credentials configured", "credentials")
	}
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, relay.NewUpstreamUnavailableError("fetch bearer token", err)
	}
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

// AzureTokenProvider adapts an azcore credential to the TokenProvider
// interface.
type AzureTokenProvider struct {
	credential azcore.TokenCredential
	scopes     []string
}

// NewAzureTokenProvider wraps cred; scopes defaults to DefaultTokenScope.
func NewAzureTokenProvider(cred azcore.TokenCredential, scopes ...string) *AzureTokenProvider {
	if len(scopes) == 0 {
		scopes = []string{DefaultTokenScope}
	}
	return &AzureTokenProvider{credential: cred, scopes: scopes}
}

// Token implements TokenProvider.
func (p *AzureTokenProvider) Token(ctx context.Context) (string, error) {
	tok, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: p.scopes})
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}
