package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/apihub-assistant/api"
	"github.com/psds-microservice/apihub-assistant/internal/handler"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Tickets   *handler.TicketHandler
	Chat      *handler.ChatHandler
	Dashboard *handler.DashboardHandler
	Ready     handler.ReadyCheck
}

func New(h Handlers) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(paths.PathHealth, gin.WrapF(handler.Health))
	r.GET(paths.PathReady, gin.WrapF(handler.Ready(h.Ready)))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	if h.Tickets != nil {
		v1.POST("/tickets", h.Tickets.Create)
		v1.GET("/tickets", h.Tickets.ListOpen)
		v1.GET("/tickets/:id", h.Tickets.Get)
		v1.POST("/tickets/:id/close", h.Tickets.Close)
	}
	if h.Chat != nil {
		v1.POST("/chat/sessions", h.Chat.CreateSession)
		v1.GET("/chat/sessions/:id", h.Chat.GetSession)
		v1.DELETE("/chat/sessions/:id", h.Chat.DeleteSession)
		v1.POST("/chat/sessions/:id/messages", h.Chat.PostMessage)
		v1.GET("/chat/ws", h.Chat.Stream)
	}
	if h.Dashboard != nil {
		dash := v1.Group("/dashboard")
		dash.GET("/summary", h.Dashboard.Summary)
		dash.GET("/apis/:name", h.Dashboard.API)
		dash.GET("/tickets", h.Dashboard.Tickets)
		dash.GET("/warnings", h.Dashboard.Warnings)
		if h.Tickets != nil {
			dash.POST("/tickets/:id/close", h.Tickets.Close)
		}
	}

	return r
}
