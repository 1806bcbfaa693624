package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
)

// APIError is returned for any non-2xx provider response.
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paypal: %s (%s, http %d)", e.Message, e.Name, e.StatusCode)
	}
	return fmt.Sprintf("paypal: http %d", e.StatusCode)
}

type Options struct {
	ClientID string
	Secret   string
	Sandbox  bool
	// BaseURL overrides the provider endpoint; used by tests.
	BaseURL string
	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
}

// Client is a minimal REST client for the provider's billing API: OAuth2
// client-credentials token with in-memory caching, product/plan creation,
// subscription create/cancel, and webhook signature verification.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		return nil, errors.New("opts is nil")
	}
	if opts.ClientID == "" || opts.Secret == "" {
		return nil, errors.New("client id and secret are required")
	}
	base := opts.BaseURL
	if base == "" {
		if opts.Sandbox {
			base = sandboxBaseURL
		} else {
			base = liveBaseURL
		}
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{httpClient: hc, baseURL: strings.TrimRight(base, "/"), clientID: opts.ClientID, secret: opts.Secret}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// token returns a cached access token, fetching a fresh one when the cached
// token is within a minute of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeAPIError(resp)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(body, apiErr)
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// do performs an authenticated JSON request and decodes a 2xx body into out
// (out may be nil for empty responses such as 204).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPost, "/v1/catalogs/products", req, &p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (c *Client) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*Plan, error) {
	var p Plan
	if err := c.do(ctx, http.MethodPost, "/v1/billing/plans", req, &p); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return &p, nil
}

func (c *Client) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error) {
	var s Subscription
	if err := c.do(ctx, http.MethodPost, "/v1/billing/subscriptions", req, &s); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &s, nil
}

type cancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID, reason string) error {
	path := fmt.Sprintf("/v1/billing/subscriptions/%s/cancel", url.PathEscape(subscriptionID))
	if err := c.do(ctx, http.MethodPost, path, &cancelSubscriptionRequest{Reason: reason}, nil); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

// VerifyWebhookSignature asks the provider whether the delivery headers match
// the raw event body for the registered webhook id.
func (c *Client) VerifyWebhookSignature(ctx context.Context, webhookID string, hdr SignatureHeaders, rawEvent []byte) (bool, error) {
	req := &verifyWebhookSignatureRequest{
		AuthAlgo:         hdr.AuthAlgo,
		CertURL:          hdr.CertURL,
		TransmissionID:   hdr.TransmissionID,
		TransmissionSig:  hdr.TransmissionSig,
		TransmissionTime: hdr.TransmissionTime,
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(rawEvent),
	}
	var res verifyWebhookSignatureResponse
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", req, &res); err != nil {
		return false, fmt.Errorf("failed to verify webhook signature: %w", err)
	}
	return res.VerificationStatus == "SUCCESS", nil
}
