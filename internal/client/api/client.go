// Package api is the HTTP client for the eDiary REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/AnshRaj112/ediary-backend/internal/calendar"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

// Error is a non-2xx API response. It unwraps to the matching diary sentinel, if any.
type Error struct {
	Status  int
	Message string
	kind    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.kind }

type errorBody struct {
	Message string `json:"message"`
}

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

// New builds a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/api").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) HasToken() bool { return c.Token() != "" }

// do sends one request. Authenticated calls without a token fail with diary.ErrAuthRequired
// before touching the network. Transport failures wrap diary.ErrNetwork.
func (c *Client) do(ctx context.Context, method, path string, authenticated bool, body, out any, query map[string]string) error {
	req := c.http.R().SetContext(ctx)
	if authenticated {
		token := c.Token()
		if token == "" {
			return diary.ErrAuthRequired
		}
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	for k, v := range query {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", diary.ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		return responseError(resp.StatusCode(), resp.Body())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

// conflictMessages are the 400 messages the server uses for duplicate accounts.
var conflictMessages = map[string]bool{
	"Email address already used": true,
	"Username already taken":     true,
}

func responseError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := eb.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return &Error{Status: status, Message: msg, kind: diary.ErrAuthRequired}
	case status == http.StatusNotFound:
		return &Error{Status: status, Message: msg, kind: diary.ErrNotFound}
	case status == http.StatusBadRequest && msg == "Invalid credentials":
		return &Error{Status: status, Message: msg, kind: diary.ErrInvalidCredentials}
	case status == http.StatusBadRequest && conflictMessages[msg]:
		return &diary.ConflictError{Message: msg}
	case status == http.StatusBadRequest:
		return &diary.ValidationError{Message: msg}
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return &Error{Status: status, Message: msg, kind: diary.ErrNetwork}
	default:
		return &Error{Status: status, Message: msg}
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type profileResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type diaryResponse struct {
	Message string      `json:"message"`
	Diary   diary.Entry `json:"diary"`
}

type emptyTrashResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// Register creates an account. The returned token is not installed on the client.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var res AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", false, req, &res, nil)
	return res, err
}

// Login accepts a username or email. The returned token is not installed on the client.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	var res AuthResponse
	body := map[string]string{"username": username, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", false, body, &res, nil)
	return res, err
}

func (c *Client) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error) {
	var res profileResponse
	err := c.do(ctx, http.MethodPut, "/auth/update-profile", true, p, &res, nil)
	return res.User, err
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var res profileResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", true, nil, &res, nil)
	return res.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", true, nil, nil, nil)
}

// ListDiaries returns active entries, newest first, optionally filtered by query.
func (c *Client) ListDiaries(ctx context.Context, query string) ([]diary.Entry, error) {
	var out []diary.Entry
	err := c.do(ctx, http.MethodGet, "/diaries", true, nil, &out, map[string]string{"q": query})
	return out, err
}

func (c *Client) ListTrash(ctx context.Context) ([]diary.Entry, error) {
	var out []diary.Entry
	err := c.do(ctx, http.MethodGet, "/diaries/trash", true, nil, &out, nil)
	return out, err
}

func (c *Client) CreateDiary(ctx context.Context, d diary.Draft) (diary.Entry, error) {
	var out diary.Entry
	err := c.do(ctx, http.MethodPost, "/diaries", true, d, &out, nil)
	return out, err
}

func (c *Client) GetDiary(ctx context.Context, id string) (diary.Entry, error) {
	var out diary.Entry
	err := c.do(ctx, http.MethodGet, "/diaries/"+id, true, nil, &out, nil)
	return out, err
}

func (c *Client) UpdateDiary(ctx context.Context, id string, p diary.Patch) (diary.Entry, error) {
	var out diary.Entry
	err := c.do(ctx, http.MethodPut, "/diaries/"+id, true, p, &out, nil)
	return out, err
}

// TrashDiary soft-deletes an entry.
func (c *Client) TrashDiary(ctx context.Context, id string) (diary.Entry, error) {
	var out diaryResponse
	err := c.do(ctx, http.MethodDelete, "/diaries/"+id, true, nil, &out, nil)
	return out.Diary, err
}

func (c *Client) RestoreDiary(ctx context.Context, id string) (diary.Entry, error) {
	var out diaryResponse
	err := c.do(ctx, http.MethodPut, "/diaries/"+id+"/restore", true, nil, &out, nil)
	return out.Diary, err
}

func (c *Client) PurgeDiary(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/diaries/"+id+"/permanent", true, nil, nil, nil)
}

// EmptyTrash permanently deletes every trashed entry and reports how many were removed.
func (c *Client) EmptyTrash(ctx context.Context) (int64, error) {
	var out emptyTrashResponse
	err := c.do(ctx, http.MethodDelete, "/diaries/trash", true, nil, &out, nil)
	return out.Deleted, err
}

// Stats fetches the profile summary computed in the tz time zone (IANA name, empty for UTC).
func (c *Client) Stats(ctx context.Context, tz string) (calendar.Stats, error) {
	var out calendar.Stats
	err := c.do(ctx, http.MethodGet, "/diaries/stats", true, nil, &out, map[string]string{"tz": tz})
	return out, err
}
