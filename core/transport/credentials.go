package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultCredentialTimeout bounds the ephemeral token fetch. Exceeding it is
// an acquisition failure; the caller must not retry past its backoff budget.
const DefaultCredentialTimeout = 10 * time.Second

// Credentials authorize one realtime session.
type Credentials struct {
	Token     string
	Model     string
	Voice     string
	ExpiresAt time.Time
}

// Expired reports whether the token is already past its expiry.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// CredentialsClient fetches short-lived bearer tokens from the app backend.
type CredentialsClient struct {
	endpoint string
	model    string
	voice    string
	timeout  time.Duration

	httpClient *http.Client
}

type CredentialsOption func(*CredentialsClient)

func WithCredentialTimeout(timeout time.Duration) CredentialsOption {
	return func(c *CredentialsClient) { c.timeout = timeout }
}

func WithHTTPClient(client *http.Client) CredentialsOption {
	return func(c *CredentialsClient) { c.httpClient = client }
}

func NewCredentialsClient(endpoint string, model string, voice string, opts ...CredentialsOption) *CredentialsClient {
	c := &CredentialsClient{
		endpoint: endpoint,
		model:    model,
		voice:    voice,
		timeout:  DefaultCredentialTimeout,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type credentialRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice,omitempty"`
}

type credentialResponse struct {
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// Fetch acquires an ephemeral token. The request is hard-aborted once the
// configured timeout elapses.
func (c *CredentialsClient) Fetch(ctx context.Context) (Credentials, error) {
	ctx, span := tracer.Start(ctx, "fetch session credentials")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(credentialRequest{Model: c.model, Voice: c.voice})
	if err != nil {
		return Credentials{}, fmt.Errorf("error marshalling credential request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		err = fmt.Errorf("error creating credential request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("credential acquisition failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Credentials{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("credential endpoint returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Credentials{}, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credentials{}, fmt.Errorf("error reading credential response: %w", err)
	}

	var decoded credentialResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return Credentials{}, fmt.Errorf("error decoding credential response: %w", err)
	}
	if decoded.ClientSecret.Value == "" {
		return Credentials{}, fmt.Errorf("credential response missing client secret")
	}

	credentials := Credentials{
		Token: decoded.ClientSecret.Value,
		Model: c.model,
		Voice: c.voice,
	}
	if decoded.ClientSecret.ExpiresAt > 0 {
		credentials.ExpiresAt = time.Unix(decoded.ClientSecret.ExpiresAt, 0)
	}
	return credentials, nil
}
