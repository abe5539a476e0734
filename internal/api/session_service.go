package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bashchat/bashchatd/internal/auth"
	"github.com/bashchat/bashchatd/internal/conn"
)

// StatusData is the body of GET /api/status.
type StatusData struct {
	Connection string `json:"connection"`
	Username   string `json:"username"`
	Name       string `json:"name"`
}

func (s *Server) handleStatus(c *gin.Context) {
	user := s.store.User()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: StatusData{
			Connection: string(s.machine.Current()),
			Username:   user.Username,
			Name:       user.Name,
		},
	})
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "username and password are required"})
		return
	}

	user, err := s.auth.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

type signUpRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "username and password are required"})
		return
	}

	user, err := s.auth.SignUp(c.Request.Context(), req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		s.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.conn.Close()
	if err := s.auth.Logout(); err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Message: "logged out"})
}

func (s *Server) handleConnect(c *gin.Context) {
	err := s.conn.Connect(c.Request.Context())
	if errors.Is(err, conn.ErrNoCredentials) {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "sign in first"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: StatusData{Connection: string(s.machine.Current())}})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	s.conn.Close()
	c.JSON(http.StatusOK, Response{Success: true})
}

// respondAuthError maps backend rejections to their original status and
// everything else to 502.
func (s *Server) respondAuthError(c *gin.Context, err error) {
	var apiErr *auth.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, Response{Success: false, Message: "backend rejected request"})
		return
	}
	s.logger.Warn("auth request failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, Response{Success: false, Message: err.Error()})
}
