package webrtc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/HuntCodes/yugen-voice/core/transport"
)

// exchangeSDP posts the local offer to the signaling endpoint and returns the
// remote answer. Any non-2xx response is a signaling failure.
func (c *Client) exchangeSDP(ctx context.Context, offer string, credentials transport.Credentials) (string, error) {
	ctx, span := tracer.Start(ctx, "exchange sdp")
	defer span.End()

	endpoint, err := url.Parse(c.signalingURL)
	if err != nil {
		return "", fmt.Errorf("invalid signaling url: %w", err)
	}
	if credentials.Model != "" {
		query := endpoint.Query()
		query.Set("model", credentials.Model)
		endpoint.RawQuery = query.Encode()
	}
	span.SetAttributes(attribute.String("request.url", endpoint.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(offer))
	if err != nil {
		return "", fmt.Errorf("error creating signaling request: %w", err)
	}
	req.Header.Set("Content-Type", "application/sdp")
	req.Header.Set("Authorization", "Bearer "+credentials.Token)

	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	resp, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("signaling exchange failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading signaling response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("signaling endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	answer := string(body)
	if !strings.HasPrefix(answer, "v=") {
		return "", fmt.Errorf("signaling response is not an SDP answer")
	}
	return answer, nil
}
