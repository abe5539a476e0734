// Package api exposes the daemon's control surface as an HTTP API. The
// daemon serves it over the session's Unix socket; the CLI is the only
// expected client.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bashchat/bashchatd/internal/cache"
	"github.com/bashchat/bashchatd/internal/outbound"
	"github.com/bashchat/bashchatd/internal/state"
	"github.com/bashchat/bashchatd/internal/status"
	"github.com/bashchat/bashchatd/internal/wire"
)

// Connector is the subset of the socket manager the API drives.
type Connector interface {
	Connect(ctx context.Context) error
	Close()
}

// Authenticator is the subset of the auth client the API drives.
type Authenticator interface {
	SignIn(ctx context.Context, username, password string) (*wire.User, error)
	SignUp(ctx context.Context, username, firstName, lastName, password string) (*wire.User, error)
	Resume(ctx context.Context) (bool, error)
	Logout() error
}

// Server holds the handler dependencies and the gin router.
type Server struct {
	store   *state.Store
	out     *outbound.Coordinator
	machine *status.Machine
	conn    Connector
	auth    Authenticator
	cache   *cache.DB
	logger  *zap.Logger
	router  *gin.Engine
}

// Response is the generic API response envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// NewServer wires the handlers. cache may be nil when the session runs
// without a local mirror.
func NewServer(
	store *state.Store,
	out *outbound.Coordinator,
	machine *status.Machine,
	conn Connector,
	auth Authenticator,
	cacheDB *cache.DB,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:   store,
		out:     out,
		machine: machine,
		conn:    conn,
		auth:    auth,
		cache:   cacheDB,
		logger:  logger,
		router:  router,
	}
	s.registerRoutes()
	return s
}

// Router returns the underlying handler for serving or testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.POST("/signin", s.handleSignIn)
		api.POST("/signup", s.handleSignUp)
		api.POST("/logout", s.handleLogout)
		api.POST("/connect", s.handleConnect)
		api.POST("/disconnect", s.handleDisconnect)

		api.GET("/friends", s.handleFriends)
		api.GET("/requests", s.handleRequests)
		api.POST("/requests/accept", s.handleRequestAccept)
		api.POST("/requests/connect", s.handleRequestConnect)
		api.GET("/search", s.handleSearch)
		api.POST("/thumbnail", s.handleThumbnail)

		api.POST("/messages/open", s.handleMessagesOpen)
		api.POST("/messages/more", s.handleMessagesMore)
		api.GET("/messages", s.handleMessages)
		api.POST("/send", s.handleSend)
		api.POST("/delete", s.handleDelete)
		api.POST("/forward", s.handleForward)
		api.POST("/typing", s.handleTyping)
		api.POST("/seen", s.handleSeen)
		api.GET("/history", s.handleHistory)
	}
}
