package api

import (
	"diskuss/auth"

	"github.com/gin-gonic/gin"
)

// NewRouter attaches all routes. Signup, login, and health are public;
// everything else requires a bearer token. The WebSocket endpoint
// authenticates during its handshake instead of through the middleware so
// browser clients can pass the token as a query parameter.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/signup", h.signup)
	router.POST("/login", h.login)
	router.GET("/health", h.health)
	router.GET("/stats", h.stats)
	router.GET("/ws", h.websocket)

	protected := router.Group("/")
	protected.Use(auth.Middleware(h.issuer))
	protected.GET("/me", h.me)
	protected.GET("/users", h.searchUsers)
	protected.GET("/discussions", h.discussions)

	return router
}
