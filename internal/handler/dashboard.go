package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/apihub-assistant/internal/dashboard"
	"github.com/psds-microservice/apihub-assistant/internal/errs"
)

type DashboardHandler struct {
	dash *dashboard.Service
}

func NewDashboardHandler(dash *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dash: dash}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	sum, err := h.dash.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *DashboardHandler) API(c *gin.Context) {
	v, err := h.dash.API(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, errs.ErrAPINotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *DashboardHandler) Tickets(c *gin.Context) {
	v, err := h.dash.OpenTickets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *DashboardHandler) Warnings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"warnings": h.dash.Warnings()})
}
