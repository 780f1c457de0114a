package router

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/watermarker/internal/api/handlers/watermark"
	"github.com/aliskhannn/watermarker/internal/api/middleware"
)

func Setup(h *watermark.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	r.GET("/healthz", func(c *ginext.Context) {
		c.Status(http.StatusOK)
	})

	api := r.Group("/api")

	api.POST("/watermark", h.Upload)               // watermarking uploaded images
	api.GET("/download/:id", h.Download)           // downloading a result by id
	api.GET("/download/:id/:filename", h.Download) // same, with the download name in the path
	api.GET("/artifact/:id", h.Meta)               // result metadata

	return r
}
