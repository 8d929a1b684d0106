package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gallery/internal/api"
	"github.com/dmitrijs2005/gallery/internal/common"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Register(ctx context.Context, userName string, password []byte) (string, error) {
	var out api.RegisterResponse
	body := api.Credentials{UserName: userName, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, api.PathRegister, false, body, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *HTTPClient) Login(ctx context.Context, userName string, password []byte) (*api.LoginResponse, error) {
	var out api.LoginResponse
	body := api.Credentials{UserName: userName, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, api.PathLogin, false, body, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()

	return &out, nil
}

func (c *HTTPClient) Logout() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *HTTPClient) Me(ctx context.Context) (*api.Identity, error) {
	var out api.Identity
	if err := c.do(ctx, http.MethodGet, api.PathMe, true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]api.User, error) {
	var out []api.User
	if err := c.do(ctx, http.MethodGet, api.PathUsers, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, api.PathHealth, false, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, authorized bool, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authorized {
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var msg api.MessageResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&msg)
	if msg.Message == "" {
		msg.Message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrValidation, msg.Message)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg.Message)
	case resp.StatusCode == http.StatusForbidden:
		return common.ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case resp.StatusCode == http.StatusConflict:
		return common.ErrDuplicateUserName
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg.Message)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg.Message)
	}
}
