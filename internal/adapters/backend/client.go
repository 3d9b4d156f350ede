// Package backend is the client of the e-invoice backend REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"einvoice-console/internal/core/domain"
)

// codeTokenInvalidated is the error code the backend sends with a 401 when a
// token was revoked server-side
const codeTokenInvalidated = "token_invalidated"

// Client calls the backend API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL (no trailing slash)
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListQuery filters and pages a backend list call
type ListQuery struct {
	Page   int
	Limit  int
	Status int
	Search string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status > 0 {
		v.Set("status", strconv.Itoa(q.Status))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		Username string `json:"username"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
	} `json:"user"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Login authenticates an operator
func (c *Client) Login(ctx context.Context, username, password string) (*domain.Principal, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Username: username, Password: password}, &out)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if out.AccessToken == "" || out.User.Username == "" {
		return nil, fmt.Errorf("%w: login response without token or user", domain.ErrBackendUnavailable)
	}

	return &domain.Principal{
		Identity:     out.User.Username,
		DisplayName:  out.User.FullName,
		Role:         out.User.Role,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

// Invalidate revokes a refresh token on the backend
func (c *Client) Invalidate(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", map[string]string{"refreshToken": refreshToken}, nil)
}

// ListInvoices lists invoices visible to the token's operator
func (c *Client) ListInvoices(ctx context.Context, accessToken string, q ListQuery) (*domain.Page[domain.Invoice], error) {
	var out domain.Page[domain.Invoice]
	if err := c.do(ctx, http.MethodGet, "/invoices?"+q.values().Encode(), accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNotifications lists tax-authority error notifications
func (c *Client) ListNotifications(ctx context.Context, accessToken string, q ListQuery) (*domain.Page[domain.ErrorNotification], error) {
	var out domain.Page[domain.ErrorNotification]
	if err := c.do(ctx, http.MethodGet, "/invoice-notifications?"+q.values().Encode(), accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupInvoice finds an invoice by its public reference; no token needed
func (c *Client) LookupInvoice(ctx context.Context, reference string) (*domain.Invoice, error) {
	var out domain.Invoice
	path := "/public/invoices/lookup?" + url.Values{"reference": {reference}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
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
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrBackendUnavailable, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb)

	switch {
	case resp.StatusCode == http.StatusUnauthorized && eb.Code == codeTokenInvalidated:
		return domain.ErrTokenInvalidated
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, eb.Message)
	default:
		return fmt.Errorf("%w: status %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}
}
