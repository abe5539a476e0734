package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FriendsData is the body of GET /api/friends. Loaded reports whether the
// server list has arrived; before that the rows come from the local cache.
type FriendsData struct {
	Loaded  bool  `json:"loaded"`
	Friends []any `json:"friends"`
}

func (s *Server) handleFriends(c *gin.Context) {
	friends, loaded := s.store.Friends()
	if loaded {
		rows := make([]any, 0, len(friends))
		for _, f := range friends {
			rows = append(rows, f)
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: FriendsData{Loaded: true, Friends: rows}})
		return
	}

	// Fall back to the cache so a cold start still shows conversations.
	if s.cache != nil {
		convs, err := s.cache.ListConversations(0)
		if err == nil {
			rows := make([]any, 0, len(convs))
			for _, conv := range convs {
				rows = append(rows, conv)
			}
			c.JSON(http.StatusOK, Response{Success: true, Data: FriendsData{Loaded: false, Friends: rows}})
			return
		}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: FriendsData{Loaded: false, Friends: []any{}}})
}

func (s *Server) handleRequests(c *gin.Context) {
	requests, loaded := s.store.Requests()
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"loaded":   loaded,
		"requests": requests,
	}})
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleRequestAccept(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "username is required"})
		return
	}
	s.out.AcceptRequest(req.Username)
	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleRequestConnect(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "username is required"})
		return
	}
	s.out.ConnectRequest(req.Username)
	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	s.out.SearchUsers(query)

	rows, active := s.store.SearchResults()
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"active":  active,
		"results": rows,
	}})
}

type thumbnailRequest struct {
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
}

func (s *Server) handleThumbnail(c *gin.Context) {
	var req thumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Base64 == "" || req.Filename == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "base64 and filename are required"})
		return
	}
	s.out.UploadThumbnail(req.Base64, req.Filename)
	c.JSON(http.StatusOK, Response{Success: true})
}
