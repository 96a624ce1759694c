package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/cache"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) *cache.SQLiteRepository {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return cache.NewSQLiteRepository(db)
}

// fakeClient implements client.Client over an in-memory session map.
type fakeClient struct {
	token string

	authToken string
	authUser  *models.User
	authErr   error
	pingErr   error

	sessions map[string]*models.Session
	listErr  error
	getErr   error
	err      error

	chatReply   *models.ChatReply
	chatErr     error
	lastHistory []models.Turn
	lastSession string
	lastMessage string
	lastPass    string
}

func newFakeClient() *fakeClient {
	return &fakeClient{sessions: map[string]*models.Session{}}
}

func (f *fakeClient) SetToken(token string) { f.token = token }

func (f *fakeClient) Register(_ context.Context, email, password, name string) (string, *models.User, error) {
	f.lastPass = password
	return f.authToken, f.authUser, f.authErr
}

func (f *fakeClient) Login(_ context.Context, email, password string) (string, *models.User, error) {
	f.lastPass = password
	return f.authToken, f.authUser, f.authErr
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) Chat(_ context.Context, sessionID, message string, history []models.Turn) (*models.ChatReply, error) {
	f.lastSession, f.lastMessage, f.lastHistory = sessionID, message, history
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if s, ok := f.sessions[sessionID]; ok {
		s.Messages = append(s.Messages,
			models.Message{ID: "u", Role: "user", Content: message},
			models.Message{ID: "a", Role: "assistant", Content: f.chatReply.Text})
	}
	return f.chatReply, nil
}

func (f *fakeClient) ListSessions(context.Context) ([]*models.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*models.Session{}
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeClient) CreateSession(_ context.Context, title string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &models.Session{ID: "new", Title: title, Messages: []models.Message{}}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeClient) GetSession(_ context.Context, id string) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *s
	cp.Messages = append([]models.Message(nil), s.Messages...)
	return &cp, nil
}

func (f *fakeClient) DeleteSession(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeClient) Export(_ context.Context, id, format string) ([]byte, string, error) {
	return []byte(id + ":" + format), "session-" + id + ".json", f.err
}

func (f *fakeClient) Archive(_ context.Context, id, format string) (*models.ArchiveLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ArchiveLink{Key: id + "." + format, URL: "https://example.invalid/" + id}, nil
}
