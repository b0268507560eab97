// Package api is the transport boundary: REST routes for account and feed
// operations, and the WebSocket endpoint for live events and fan-out.
package api

import (
	"log/slog"
	"net/http"

	"diskuss/auth"
	"diskuss/errors"
	"diskuss/observability"
	"diskuss/repositories"
	"diskuss/runtime"
	"diskuss/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	log               *slog.Logger
	issuer            *auth.TokenIssuer
	authService       services.IAuthService
	discussionService services.IDiscussionService
	messageService    services.IMessageService
	users             repositories.IUserRepository
	registry          *runtime.Registry
	monitor           *observability.Monitor
	upgrader          websocket.Upgrader
	bufferSize        int
	searchLimit       int
}

func NewHandler(
	log *slog.Logger,
	issuer *auth.TokenIssuer,
	authService services.IAuthService,
	discussionService services.IDiscussionService,
	messageService services.IMessageService,
	users repositories.IUserRepository,
	registry *runtime.Registry,
	monitor *observability.Monitor,
	bufferSize, searchLimit int,
) *Handler {
	return &Handler{
		log:               log,
		issuer:            issuer,
		authService:       authService,
		discussionService: discussionService,
		messageService:    messageService,
		users:             users,
		registry:          registry,
		monitor:           monitor,
		upgrader: websocket.Upgrader{
			// Cross-origin policy is enforced upstream; the service itself
			// accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize:  bufferSize,
		searchLimit: searchLimit,
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToFailure(errors.ErrMissingFields))
		return
	}
	token, user, err := h.authService.Signup(req.Username, req.Password)
	if err != nil {
		failure := errors.ToFailure(err)
		c.JSON(failure.Code, failure)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: string(token), UserID: user.ID, Message: "SUCCESS"})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToFailure(errors.ErrMissingFields))
		return
	}
	token, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		failure := errors.ToFailure(err)
		c.JSON(failure.Code, failure)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: string(token), UserID: user.ID, Message: "SUCCESS"})
}

func (h *Handler) me(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errors.ToFailure(errors.ErrTokenMissing))
		return
	}
	user, err := h.users.GetUserByID(userID)
	if err != nil {
		failure := errors.ToFailure(err)
		c.JSON(failure.Code, failure)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user.Profile()})
}

func (h *Handler) searchUsers(c *gin.Context) {
	pattern := c.Query("q")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, errors.ToFailure(errors.ErrMissingFields))
		return
	}
	profiles, err := h.users.SearchByUsername(c.Request.Context(), pattern, h.searchLimit)
	if err != nil {
		h.log.Error("user search failed", "pattern", pattern, "error", err)
		failure := errors.ToFailure(err)
		c.JSON(failure.Code, failure)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profiles})
}

func (h *Handler) discussions(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errors.ToFailure(errors.ErrTokenMissing))
		return
	}
	feed, err := h.discussionService.ListForUser(userID)
	if err != nil {
		failure := errors.ToFailure(err)
		c.JSON(failure.Code, failure)
		return
	}
	summaries := make([]any, 0)
	for summary := range feed {
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) stats(c *gin.Context) {
	users, connections := h.registry.Size()
	c.JSON(http.StatusOK, h.monitor.Snapshot(users, connections))
}
