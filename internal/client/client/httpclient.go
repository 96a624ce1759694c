package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/common"
)

const defaultTimeout = 2 * time.Minute

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type chatRequest struct {
	Message   string        `json:"message"`
	History   []models.Turn `json:"history"`
	SessionID string        `json:"sessionId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (string, *models.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", authRequest{Email: email, Password: password, Name: name}, &resp); err != nil {
		return "", nil, err
	}
	return resp.Token, &resp.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", authRequest{Email: email, Password: password}, &resp); err != nil {
		return "", nil, err
	}
	return resp.Token, &resp.User, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) Chat(ctx context.Context, sessionID, message string, history []models.Turn) (*models.ChatReply, error) {
	if history == nil {
		history = []models.Turn{}
	}
	reply := &models.ChatReply{}
	if err := c.do(ctx, http.MethodPost, "/chat", chatRequest{Message: message, History: history, SessionID: sessionID}, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]*models.Session, error) {
	var list []*models.Session
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, title string) (*models.Session, error) {
	s := &models.Session{}
	if err := c.do(ctx, http.MethodPost, "/sessions", map[string]string{"title": title}, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s := &models.Session{}
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	path := "/sessions/" + url.PathEscape(id) + "/export?format=" + url.QueryEscape(format)

	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", ErrUnavailable
	}

	name := "chat-" + id
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return body, name, nil
}

func (c *HTTPClient) Archive(ctx context.Context, id, format string) (*models.ArchiveLink, error) {
	path := "/sessions/" + url.PathEscape(id) + "/archive?format=" + url.QueryEscape(format)
	link := &models.ArchiveLink{}
	if err := c.do(ctx, http.MethodPost, path, nil, link); err != nil {
		return nil, err
	}
	return link, nil
}

// do sends in as JSON (when non-nil) and decodes a successful body into out
// (when non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the request and maps non-2xx answers to errors. On success
// the caller owns resp.Body.
func (c *HTTPClient) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, ErrUnavailable
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	return nil, mapStatus(resp)
}

func mapStatus(resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&e)
	msg := e.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", common.ErrorRateLimited, msg)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s", common.ErrorInternal, msg)
	}
}
