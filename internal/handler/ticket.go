package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/service"
)

type TicketHandler struct {
	svc service.TicketServicer
}

func NewTicketHandler(svc service.TicketServicer) *TicketHandler {
	return &TicketHandler{svc: svc}
}

type createTicketRequest struct {
	Subject string `json:"subject"`
	Details string `json:"details"`
	Contact string `json:"contact"`
}

// Create opens a ticket from the manual form.
func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	id, err := h.svc.CreateFromForm(c.Request.Context(), service.ManualTicket{
		Subject: req.Subject,
		Details: req.Details,
		Contact: req.Contact,
	})
	if err != nil {
		if errors.Is(err, errs.ErrEmptyTicketForm) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ticket"})
		return
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// ListOpen returns open tickets, longest-waiting first.
func (h *TicketHandler) ListOpen(c *gin.Context) {
	items, err := h.svc.ListOpen(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	if items == nil {
		c.JSON(http.StatusOK, gin.H{"tickets": []any{}, "total": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   len(items),
	})
}

func (h *TicketHandler) Close(c *gin.Context) {
	t, err := h.svc.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func writeTicketError(c *gin.Context, err error) {
	if errors.Is(err, errs.ErrTicketNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
