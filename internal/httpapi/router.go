package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/annalza/mint-stock-flow/internal/platform/observability"
)

// NewRouter registers every route of the API.
func NewRouter(h *Handler, hub *Hub, logger observability.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, requestIDHeader)
	corsConfig.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	r.Use(cors.New(corsConfig))

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.Health)

	items := v1.Group("/items")
	items.GET("", h.ListItems)
	items.GET("/:id", h.GetItem)
	items.GET("/code/:code", h.GetItemByCode)
	items.POST("/:id/receive", h.Receive)
	items.POST("/:id/issue", h.Issue)
	items.PATCH("/:id", h.EditItem)

	recipes := v1.Group("/recipes")
	recipes.GET("", h.ListRecipes)
	recipes.GET("/:id", h.GetRecipe)
	recipes.POST("/:id/sell", h.Sell)

	procurements := v1.Group("/procurements")
	procurements.GET("", h.ListProcurements)
	procurements.GET("/counts", h.ProcurementCounts)
	procurements.POST("", h.SubmitProcurement)
	procurements.POST("/:id/approve", h.ApproveProcurement)
	procurements.POST("/:id/reject", h.RejectProcurement)
	procurements.DELETE("/:id", h.RemoveProcurement)

	v1.GET("/reports/stock.xlsx", h.StockReport)

	if hub != nil {
		r.GET("/ws", hub.ServeWS)
	}
	return r
}

// NewServer wraps the router in the OpenTelemetry HTTP instrumentation.
func NewServer(addr string, router http.Handler) *http.Server {
	handler := otelhttp.NewHandler(router, "http-server",
		otelhttp.WithMeterProvider(otel.GetMeterProvider()),
		otelhttp.WithTracerProvider(otel.GetTracerProvider()),
	)
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
