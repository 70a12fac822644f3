package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body keyed by
// the subscriber secret.
const SignatureHeader = "X-Cal-Signature-256"

// maxMessageBytes caps how much of a subscriber response is kept as the outcome message.
const maxMessageBytes = 1024

// Dispatcher delivers one rendered payload to one subscriber.
type Dispatcher interface {
	Dispatch(ctx context.Context, sub Subscriber, body []byte) Outcome
}

// HTTPDispatcher POSTs payloads with the given HTTP client. It never retries.
type HTTPDispatcher struct {
	client *http.Client
}

// NewHTTPDispatcher returns an HTTPDispatcher. A nil client uses http.DefaultClient,
// which has no timeout.
func NewHTTPDispatcher(client *http.Client) *HTTPDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDispatcher{client: client}
}

// Sign returns the hex-encoded HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Dispatch implements Dispatcher. Configuration, transport and protocol
// failures are all reported through the returned Outcome.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, sub Subscriber, body []byte) Outcome {
	if strings.TrimSpace(sub.SubscriberURL) == "" {
		return failure(sub, "subscriber %q has no destination URL", sub.ID)
	}
	u, err := url.Parse(sub.SubscriberURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return failure(sub, "invalid subscriber URL %q", sub.SubscriberURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return failure(sub, "building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sub.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(sub.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return failure(sub, "delivering to %s: %v", u.Host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxMessageBytes))
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	status := resp.StatusCode
	return Outcome{
		SubscriberID: sub.ID,
		OK:           status >= 200 && status < 300,
		Status:       &status,
		Message:      msg,
	}
}
