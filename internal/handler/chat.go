package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/psds-microservice/apihub-assistant/internal/assistant"
	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/session"
)

// TurnHandler runs one chat turn against a session.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sess *session.Session, userText string) (assistant.TurnResult, error)
}

type ChatHandler struct {
	turns    TurnHandler
	sessions *session.Registry
	upgrader websocket.Upgrader
}

func NewChatHandler(turns TurnHandler, sessions *session.Registry) *ChatHandler {
	return &ChatHandler{
		turns:    turns,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type createSessionRequest struct {
	Contact string `json:"contact"`
}

type sessionResponse struct {
	ID      string `json:"id"`
	Contact string `json:"contact,omitempty"`
	Turns   int    `json:"turns"`
}

type messageRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}
	s := h.sessions.Create(req.Contact)
	c.JSON(http.StatusCreated, sessionResponse{ID: s.ID, Contact: s.Contact})
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       s.ID,
		"contact":  s.Contact,
		"turns":    s.Len(),
		"messages": s.History(),
	})
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// PostMessage runs a turn and returns the reply. A failed escalation write
// still returns the reply, with the error attached and status 502.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.turns.HandleTurn(c.Request.Context(), s, req.Message)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, errs.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrEscalationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": res})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *ChatHandler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}

type wsFrame struct {
	SessionID string                `json:"session_id,omitempty"`
	Result    *assistant.TurnResult `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Stream serves one conversation per websocket connection. The session is
// not registered and ends with the connection.
func (h *ChatHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("handler: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	s := session.New(uuid.NewString(), c.Query("contact"))
	if err := conn.WriteJSON(wsFrame{SessionID: s.ID}); err != nil {
		return
	}
	ctx := c.Request.Context()
	for {
		var req messageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("handler: websocket session %s: %v", s.ID, err)
			}
			return
		}
		res, err := h.turns.HandleTurn(ctx, s, req.Message)
		frame := wsFrame{SessionID: s.ID}
		if err != nil {
			frame.Error = err.Error()
		}
		if !errors.Is(err, errs.ErrEmptyMessage) {
			frame.Result = &res
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("handler: websocket session %s: write: %v", s.ID, err)
			return
		}
	}
}
