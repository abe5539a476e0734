package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bashchat/bashchatd/internal/outbound"
	"github.com/bashchat/bashchatd/internal/state"
)

type openRequest struct {
	ConnectionID int64  `json:"connection_id"`
	Username     string `json:"username"`
}

func (s *Server) handleMessagesOpen(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return
	}
	key := state.ConvKey{ID: req.ConnectionID, Username: req.Username}
	if key.IsZero() {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "connection_id or username is required"})
		return
	}
	s.out.LoadPage(key, 0)
	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleMessagesMore(c *gin.Context) {
	key := s.store.Active()
	if key.IsZero() {
		c.JSON(http.StatusConflict, Response{Success: false, Message: "no open conversation"})
		return
	}
	s.out.LoadMore(key)
	c.JSON(http.StatusOK, Response{Success: true})
}

// MessagesData is the body of GET /api/messages.
type MessagesData struct {
	ConnectionID int64              `json:"connection_id"`
	Username     string             `json:"username"`
	Typing       bool               `json:"typing"`
	Sections     []state.DaySection `json:"sections"`
}

func (s *Server) handleMessages(c *gin.Context) {
	key := s.store.Active()
	if key.IsZero() {
		c.JSON(http.StatusConflict, Response{Success: false, Message: "no open conversation"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, Response{Success: true, Data: MessagesData{
		ConnectionID: key.ID,
		Username:     key.Username,
		Typing:       s.store.TypingActive(now),
		Sections:     state.GroupByDay(s.store.Messages(), now),
	}})
}

type sendRequest struct {
	ConnectionID int64  `json:"connection_id"`
	Text         string `json:"text"`

	Base64        string  `json:"base64,omitempty"`
	Filename      string  `json:"filename,omitempty"`
	Video         string  `json:"video,omitempty"`
	VideoFilename string  `json:"video_filename,omitempty"`
	VideoURL      string  `json:"video_url,omitempty"`
	VideoThumbURL string  `json:"video_thumb_url,omitempty"`
	VideoDuration float64 `json:"video_duration,omitempty"`
}

func (s *Server) handleSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return
	}
	if req.ConnectionID == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "connection_id is required"})
		return
	}

	var media *outbound.Media
	if req.Base64 != "" || req.Video != "" {
		media = &outbound.Media{
			Base64:        req.Base64,
			Filename:      req.Filename,
			Video:         req.Video,
			VideoFilename: req.VideoFilename,
			VideoURL:      req.VideoURL,
			VideoThumbURL: req.VideoThumbURL,
			VideoDuration: req.VideoDuration,
		}
	}
	s.out.SendMessage(req.ConnectionID, req.Text, media)
	c.JSON(http.StatusOK, Response{Success: true})
}

type deleteRequest struct {
	ConnectionID int64   `json:"connection_id"`
	IDs          []int64 `json:"ids"`
}

func (s *Server) handleDelete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ConnectionID == 0 || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "connection_id and ids are required"})
		return
	}
	s.out.DeleteMessages(req.ConnectionID, req.IDs)
	c.JSON(http.StatusOK, Response{Success: true})
}

type forwardRequest struct {
	FromConnectionID int64   `json:"from_connection_id"`
	ToConnectionID   int64   `json:"to_connection_id"`
	IDs              []int64 `json:"ids"`
}

func (s *Server) handleForward(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FromConnectionID == 0 || req.ToConnectionID == 0 || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "from/to connection ids and ids are required"})
		return
	}
	s.out.ForwardMessages(req.FromConnectionID, req.ToConnectionID, req.IDs)
	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleTyping(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "username is required"})
		return
	}
	s.out.NotifyTyping(req.Username)
	c.JSON(http.StatusOK, Response{Success: true})
}

type seenRequest struct {
	ConnectionID int64 `json:"connection_id"`
	MessageID    int64 `json:"message_id"`
}

func (s *Server) handleSeen(c *gin.Context) {
	var req seenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ConnectionID == 0 || req.MessageID == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "connection_id and message_id are required"})
		return
	}
	s.out.MarkSeen(req.ConnectionID, req.MessageID)
	c.JSON(http.StatusOK, Response{Success: true})
}

// handleHistory reads straight from the local cache so history works while
// the socket is down.
func (s *Server) handleHistory(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Message: "no local cache"})
		return
	}

	connectionID, err := strconv.ParseInt(c.Query("connection_id"), 10, 64)
	if err != nil || connectionID == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "connection_id is required"})
		return
	}

	var beforeID int64
	if before := c.Query("before"); before != "" {
		if beforeID, err = strconv.ParseInt(before, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid before parameter"})
			return
		}
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := s.cache.ListMessages(connectionID, beforeID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: msgs})
}
