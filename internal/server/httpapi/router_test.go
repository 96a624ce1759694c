package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/conversation"
	"github.com/dmitrijs2005/gophchat/internal/server/pricing"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) Generate(context.Context, []conversation.Turn, string) (string, error) {
	return s.reply, s.err
}

type testAPI struct {
	router    *gin.Engine
	tokens    *auth.TokenManager
	completer *stubCompleter
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	m := repomanager.NewMemoryRepositoryManager()
	tokens := auth.NewTokenManager("http-test-secret", time.Hour)
	calc, err := pricing.NewCalculator("gemini-2.5-flash")
	require.NoError(t, err)

	completer := &stubCompleter{reply: "hi there"}
	h := NewHandler(
		services.NewAccountService(m, tokens, logging.Nop{}),
		services.NewSessionService(m, nil, logging.Nop{}),
		services.NewChatService(m, completer, nil, conversation.DropNormalizer{}, calc, logging.Nop{}),
		logging.Nop{},
	)

	return &testAPI{router: NewRouter(h, tokens, nil, logging.Nop{}), tokens: tokens, completer: completer}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) register(t *testing.T, email string) authResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/auth/register", "", registerRequest{Email: email, Password: "secret1", Name: "Tester"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authResponse](t, w)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	res := api.register(t, "alice@example.com")
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "Tester", res.User.Name)
	assert.NotEmpty(t, res.User.ID)

	w := api.do(t, http.MethodPost, "/auth/register", "", registerRequest{Email: "alice@example.com", Password: "secret1", Name: "X"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User already exists", decode[errorResponse](t, w).Error)

	w = api.do(t, http.MethodPost, "/auth/register", "", registerRequest{Email: "bob@example.com", Password: "123", Name: "Bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/auth/register", "", registerRequest{Email: "bob@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestMe(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register(t, "mel@example.com")

	w := api.do(t, http.MethodGet, "/auth/me", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, reg.User, decode[userDTO](t, w))

	w = api.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ghost, err := api.tokens.Issue("no-such-account", "ghost@example.com")
	require.NoError(t, err)
	w = api.do(t, http.MethodGet, "/auth/me", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register(t, "carol@example.com")

	w := api.do(t, http.MethodPost, "/auth/login", "", loginRequest{Email: "carol@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[authResponse](t, w)
	assert.Equal(t, reg.User.ID, res.User.ID)

	w = api.do(t, http.MethodPost, "/auth/login", "", loginRequest{Email: "carol@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/chat"},
		{http.MethodGet, "/sessions"},
		{http.MethodPost, "/sessions"},
		{http.MethodGet, "/sessions/x"},
		{http.MethodDelete, "/sessions/x"},
		{http.MethodGet, "/sessions/x/export"},
		{http.MethodPost, "/sessions/x/archive"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := api.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = api.do(t, r.method, r.path, "garbage.token.here", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionsAndChatFlow(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register(t, "owner@example.com")
	other := api.register(t, "other@example.com")

	w := api.do(t, http.MethodPost, "/sessions", owner.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[sessionDTO](t, w)
	assert.Equal(t, "New Chat", created.Title)
	assert.Equal(t, owner.User.ID, created.OwnerID)
	assert.Empty(t, created.Messages)
	assert.Zero(t, created.Stats)

	w = api.do(t, http.MethodPost, "/chat", owner.Token, chatRequest{
		Message:   "hello model",
		History:   []turnDTO{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}},
		SessionID: created.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	turn := decode[chatResponse](t, w)
	assert.Equal(t, "hi there", turn.Text)
	assert.Equal(t, int64(3), turn.PromptTokens)
	assert.Equal(t, int64(3), turn.CompletionTokens)
	assert.Equal(t, int64(6), turn.TotalTokens)

	w = api.do(t, http.MethodGet, "/sessions/"+created.ID, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[sessionDTO](t, w)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello model", got.Messages[0].Content)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, int64(6), got.Stats.TotalTokens)

	w = api.do(t, http.MethodGet, "/sessions/"+created.ID, other.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/sessions", other.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = api.do(t, http.MethodGet, "/sessions/"+created.ID+"/export?format=markdown", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "# New Chat"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".md")

	w = api.do(t, http.MethodGet, "/sessions/"+created.ID+"/export?format=pdf", owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/sessions/"+created.ID+"/archive", owner.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = api.do(t, http.MethodDelete, "/sessions/"+created.ID, other.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/sessions/"+created.ID, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Session deleted"}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/sessions/"+created.ID, owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionWithTitle(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register(t, "t@example.com")

	w := api.do(t, http.MethodPost, "/sessions", owner.Token, createSessionRequest{Title: "Go questions"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Go questions", decode[sessionDTO](t, w).Title)
}

func TestChatErrors(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register(t, "e@example.com")

	w := api.do(t, http.MethodPost, "/chat", owner.Token, chatRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message is required", decode[errorResponse](t, w).Error)

	api.completer.err = errors.New("upstream exploded with secret detail")
	w = api.do(t, http.MethodPost, "/chat", owner.Token, chatRequest{Message: "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to process message", decode[errorResponse](t, w).Error)
	assert.NotContains(t, w.Body.String(), "secret detail")
}

func TestChatUnknownSessionStillAnswers(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register(t, "u@example.com")

	w := api.do(t, http.MethodPost, "/chat", owner.Token, chatRequest{Message: "hi", SessionID: "missing"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	api := newTestAPI(t)
	expired := auth.NewTokenManager("http-test-secret", time.Nanosecond)

	tok, err := expired.Issue("u-1", "u@example.com")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	w := api.do(t, http.MethodGet, "/sessions", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
