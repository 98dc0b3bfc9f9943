package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nabilhasan01/CSE499A/internal/model"
)

const RequestIDHeader = "X-Request-ID"

// NewRouter wires the prediction endpoints. maxUploadMB bounds the part of
// a multipart upload kept in memory.
func NewRouter(h *Handler, allowOrigins []string, maxUploadMB int64) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadMB << 20

	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			model.ErrorResponse{Error: fmt.Sprint(recovered)})
	}))
	r.Use(RequestID())
	r.Use(cors.New(corsConfig(allowOrigins)))

	r.GET("/health", h.Health)
	r.GET("/model-info", h.ModelInfo)
	r.POST("/leaf-predict/", h.LeafPredict)
	r.POST("/soil-predict/", h.SoilPredict)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"POST", "GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{RequestIDHeader},
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// RequestID echoes the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
