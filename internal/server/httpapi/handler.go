// Package httpapi exposes the chat backend as a JSON HTTP API built on gin.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/export"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, email, password, name string) (*models.Account, string, error)
	Login(ctx context.Context, email, password string) (*models.Account, string, error)
	Account(ctx context.Context, id string) (*models.Account, error)
}

type SessionService interface {
	Create(ctx context.Context, ownerID, title string) (*models.Session, error)
	List(ctx context.Context, ownerID string) ([]*models.Session, error)
	Get(ctx context.Context, ownerID, id string) (*models.Session, error)
	Delete(ctx context.Context, ownerID, id string) error
	Export(ctx context.Context, ownerID, id, format string) (*export.Document, error)
	Archive(ctx context.Context, ownerID, id, format string) (*services.ArchiveLink, error)
}

type ChatService interface {
	Chat(ctx context.Context, req services.ChatRequest) (*services.ChatResult, error)
}

type Handler struct {
	accounts AccountService
	sessions SessionService
	chat     ChatService
	log      logging.Logger
}

func NewHandler(a AccountService, s SessionService, c ChatService, log logging.Logger) *Handler {
	return &Handler{accounts: a, sessions: s, chat: c, log: log}
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	account, token, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(c, err, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token, User: toUserDTO(account)})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	account, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: toUserDTO(account)})
}

// Me returns the account behind the bearer token.
func (h *Handler) Me(c *gin.Context) {
	account, err := h.accounts.Account(c.Request.Context(), ownerID(c))
	if err != nil {
		h.writeError(c, err, "Failed to load account")
		return
	}

	c.JSON(http.StatusOK, toUserDTO(account))
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	res, err := h.chat.Chat(c.Request.Context(), services.ChatRequest{
		OwnerID:   ownerID(c),
		SessionID: req.SessionID,
		Message:   req.Message,
		History:   toTurns(req.History),
	})
	if err != nil {
		h.writeError(c, err, "Failed to process message")
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Text:             res.Text,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		TotalTokens:      res.TotalTokens,
		Cost:             res.Cost,
	})
}

func (h *Handler) ListSessions(c *gin.Context) {
	list, err := h.sessions.List(c.Request.Context(), ownerID(c))
	if err != nil {
		h.writeError(c, err, "Failed to fetch sessions")
		return
	}

	out := make([]sessionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, toSessionDTO(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	// an empty body is allowed and means the default title
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}
	}

	s, err := h.sessions.Create(c.Request.Context(), ownerID(c), req.Title)
	if err != nil {
		h.writeError(c, err, "Failed to create session")
		return
	}

	c.JSON(http.StatusCreated, toSessionDTO(s))
}

func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to fetch session")
		return
	}

	c.JSON(http.StatusOK, toSessionDTO(s))
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		h.writeError(c, err, "Failed to delete session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

func (h *Handler) ExportSession(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.sessions.Export(c.Request.Context(), ownerID(c), id, c.Query("format"))
	if err != nil {
		h.writeError(c, err, "Failed to export session")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.%s"`, id, doc.Extension))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func (h *Handler) ArchiveSession(c *gin.Context) {
	link, err := h.sessions.Archive(c.Request.Context(), ownerID(c), c.Param("id"), c.Query("format"))
	if err != nil {
		h.writeError(c, err, "Failed to archive session")
		return
	}

	c.JSON(http.StatusOK, archiveResponse{Key: link.Key, URL: link.URL})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
