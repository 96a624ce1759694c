package httpapi

import (
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine. limiter may be nil to disable rate
// limiting.
func NewRouter(h *Handler, tokens TokenValidator, limiter Limiter, log logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/health", h.Health)

	api := r.Group("/")
	if limiter != nil {
		api.Use(RateLimit(limiter, log))
	}

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	protected := api.Group("/", Authenticate(tokens))
	protected.GET("/auth/me", h.Me)
	protected.POST("/chat", h.Chat)
	protected.GET("/sessions", h.ListSessions)
	protected.POST("/sessions", h.CreateSession)
	protected.GET("/sessions/:id", h.GetSession)
	protected.DELETE("/sessions/:id", h.DeleteSession)
	protected.GET("/sessions/:id/export", h.ExportSession)
	protected.POST("/sessions/:id/archive", h.ArchiveSession)

	return r
}
