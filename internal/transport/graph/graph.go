// Package graph implements a Transport that sends emails via the Microsoft
// Graph API using OAuth2 client credentials.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/prspace/mailjet-transport/internal/email"
	"github.com/prspace/mailjet-transport/internal/transport"
)

// Name is the driver name the Graph transport is registered under.
const Name = "graph"

const (
	defaultScope   = "https://graph.microsoft.com/.default"
	requestTimeout = 30 * time.Second
)

// Config holds the configuration for creating a Transport.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Sender       string
}

// Error is a non-2xx answer from the sendMail endpoint.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph: HTTP %d: %s", e.StatusCode, e.Message)
}

// Transport sends emails through a mailbox via the Graph sendMail endpoint.
// Access tokens are fetched and cached by the oauth2 client.
type Transport struct {
	sender     string
	graphURL   string
	httpClient *http.Client
}

// New creates a new Transport with the given configuration.
func New(cfg Config) *Transport {
	tokenURL := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(cfg.TenantID))
	graphURL := fmt.Sprintf("https://graph.microsoft.com/v1.0/users/%s/sendMail", url.PathEscape(cfg.Sender))

	return newWithOverrides(cfg, graphURL, tokenURL, &http.Client{Timeout: requestTimeout})
}

// newWithOverrides creates a Transport with custom endpoints and base HTTP
// client, used for testing.
func newWithOverrides(cfg Config, graphURL, tokenURL string, base *http.Client) *Transport {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{defaultScope},
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = requestTimeout

	return &Transport{
		sender:     cfg.Sender,
		graphURL:   graphURL,
		httpClient: client,
	}
}

// Factory builds a Graph transport from the "services.graph" section
// (tenant_id, client_id, client_secret, sender).
func Factory(cfg transport.Config) (transport.Transport, error) {
	return New(Config{
		TenantID:     cfg.Get("tenant_id"),
		ClientID:     cfg.Get("client_id"),
		ClientSecret: cfg.Get("client_secret"),
		Sender:       cfg.Get("sender"),
	}), nil
}

// Name returns the driver name.
func (g *Transport) Name() string {
	return Name
}

// Send delivers an email message via the Microsoft Graph API.
func (g *Transport) Send(ctx context.Context, msg *email.Email) error {
	bodyJSON, err := json.Marshal(buildSendMailRequest(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphURL, bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph: request failed: %w", err)
	}
	defer resp.Body.Close()

	// HTTP 202 Accepted is success for sendMail
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	apiErr := &Error{StatusCode: resp.StatusCode, Message: string(body)}
	var envelope errorResponse
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
