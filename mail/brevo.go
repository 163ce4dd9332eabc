// Package mail provides MailDispatcher implementations for the engine:
// an HTTP dispatcher speaking the Brevo transactional-email API and a
// NoOp dispatcher for tests and plaintext-fallback setups.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.brevo.com/v3"
	defaultTimeout = 10 * time.Second
)

// HTTPDispatcher delivers recovery codes through the Brevo transactional
// email endpoint. It satisfies the best-effort MailDispatcher contract:
// any transport or API failure is reported as false, never as a panic.
type HTTPDispatcher struct {
	apiKey     string
	baseURL    string
	senderName string
	senderMail string
	client     *http.Client
}

// Option customizes an [HTTPDispatcher].
type Option func(*HTTPDispatcher)

// WithBaseURL overrides the API base URL. Used by tests to point at a
// local server.
func WithBaseURL(url string) Option {
	return func(d *HTTPDispatcher) { d.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *HTTPDispatcher) { d.client = client }
}

// NewHTTPDispatcher creates a dispatcher authenticated with the given API
// key. senderName and senderMail populate the message envelope.
func NewHTTPDispatcher(apiKey, senderName, senderMail string, opts ...Option) *HTTPDispatcher {
	d := &HTTPDispatcher{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		senderName: senderName,
		senderMail: senderMail,
		client:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type sendRequest struct {
	Sender      party   `json:"sender"`
	To          []party `json:"to"`
	Subject     string  `json:"subject"`
	HTMLContent string  `json:"htmlContent"`
}

type party struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// SendRecoveryCode posts the recovery email and reports whether the API
// accepted it. A false return means the caller should fall back or fail
// according to its own policy.
func (d *HTTPDispatcher) SendRecoveryCode(ctx context.Context, email, login, code string) bool {
	payload := sendRequest{
		Sender:      party{Name: d.senderName, Email: d.senderMail},
		To:          []party{{Name: login, Email: email}},
		Subject:     "Password recovery code",
		HTMLContent: recoveryBody(login, code),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/smtp/email", bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated
}

func recoveryBody(login, code string) string {
	return fmt.Sprintf(`<html><body>
<p>Hello %s,</p>
<p>Your password recovery code is:</p>
<h2>%s</h2>
<p>The code is valid for 15 minutes. If you did not request it, ignore this message.</p>
</body></html>`, html.EscapeString(login), html.EscapeString(code))
}

// NoOp is a MailDispatcher that never delivers. Useful in tests and in
// deployments that rely on the plaintext fallback path.
type NoOp struct{}

// SendRecoveryCode always reports failed delivery.
func (NoOp) SendRecoveryCode(context.Context, string, string, string) bool {
	return false
}
