package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/service"
)

// Client talks to an external identity service over HTTP. The identity
// service owns credentials and token issuance; this client only pushes
// account-state changes (role claims, enable/disable, deletion) to it.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

var _ service.IdentityProvider = (*Client)(nil)

// NewClient creates an identity client. token is sent as a bearer token on
// every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) SetRoleClaim(ctx context.Context, accountID string, role domain.Role) error {
	body := map[string]string{"role": role.String()}
	return c.do(ctx, http.MethodPut, "/internal/identities/"+url.PathEscape(accountID)+"/role", body)
}

func (c *Client) Disable(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodPost, "/internal/identities/"+url.PathEscape(accountID)+"/disable", nil)
}

func (c *Client) Enable(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodPost, "/internal/identities/"+url.PathEscape(accountID)+"/enable", nil)
}

func (c *Client) Delete(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, "/internal/identities/"+url.PathEscape(accountID), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("identity service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}
