package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthorized is matched by any API error carrying a 401 status.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API %d", e.StatusCode)
	}
	return fmt.Sprintf("API %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) SetToken(token string) {
	c.Token = token
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthSession, error) {
	var out envelope[AuthSession]
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.Token = out.Data.AccessToken
	return &out.Data, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthSession, error) {
	var out envelope[AuthSession]
	if err := c.do(ctx, http.MethodPost, "/auth/signup", req, &out); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	c.Token = out.Data.AccessToken
	return &out.Data, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthSession, error) {
	var out envelope[AuthSession]
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	c.Token = out.Data.AccessToken
	return &out.Data, nil
}

// Me returns the authenticated user. /auth/me answers with a bare data object.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out envelope[User]
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &out.Data, nil
}

func (c *Client) CreateConversation(ctx context.Context, req ConversationRequest) (*Conversation, error) {
	var out envelope[Conversation]
	if err := c.do(ctx, http.MethodPost, "/api/conversations", req, &out); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	if out.Data.ID == "" {
		return nil, errors.New("create conversation: empty conversation id")
	}
	return &out.Data, nil
}

func (c *Client) StoreCredential(ctx context.Context, req CredentialRequest) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/context/secret/credential", req, nil); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (c *Client) StoreSSHKey(ctx context.Context, req SSHKeyRequest) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/context/secret/ssh-key", req, nil); err != nil {
		return fmt.Errorf("store ssh key: %w", err)
	}
	return nil
}

func (c *Client) ListCredentials(ctx context.Context) ([]CredentialInfo, error) {
	var out envelope[[]CredentialInfo]
	if err := c.do(ctx, http.MethodGet, "/api/v1/context/secret/list", nil, &out); err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return out.Data, nil
}

// do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var er ErrorResponse
	if json.Unmarshal(body, &er) == nil && (er.Error != "" || er.Message != "") {
		apiErr.Message = er.Message
		if apiErr.Message == "" {
			apiErr.Message = er.Error
		}
		if er.Details != "" {
			apiErr.Message += " (" + er.Details + ")"
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
