package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"

	"go.uber.org/zap"
)

// Client talks to a hosted GoTrue-style auth endpoint. Credentials are
// always verified remotely; there is no development identity bypass.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	if log == nil {
		panic("logger is nil")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*entities.Session, error) {
	return c.sessionRequest(ctx, "/auth/v1/token?grant_type=password", credentials{Email: email, Password: password})
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*entities.Session, error) {
	return c.sessionRequest(ctx, "/auth/v1/signup", credentials{Email: email, Password: password})
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", exceptions.ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.rejection(resp)
	}
	return nil
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/recover", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", exceptions.ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.rejection(resp)
	}
	return nil
}

func (c *Client) sessionRequest(ctx context.Context, path string, creds credentials) (*entities.Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exceptions.ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, exceptions.ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.rejection(resp)
	}

	session := sessionResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &entities.Session{
		UserID:       session.User.ID,
		Email:        session.User.Email,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}, nil
}

func (c *Client) rejection(resp *http.Response) error {
	diagnostic, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	c.log.Warn("auth: request rejected", zap.Int("status", resp.StatusCode))
	return fmt.Errorf("%w: status %d: %s", exceptions.ErrAuthUnavailable, resp.StatusCode, diagnostic)
}
