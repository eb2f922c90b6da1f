// Package http wires the gin router and *http.Server for the vector
// database's HTTP surface (spec.md §6.2).
package http

import (
	"net/http"
	"os"
	"time"

	"github.com/edirooss/vectordb-server/internal/api/http/handler"
	"github.com/edirooss/vectordb-server/internal/api/http/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// NewServer builds an *http.Server listening on addr, serving vh's
// routes behind the standard middleware chain: recovery, secure
// headers, dev-only CORS, request ID, structured logging, and a
// concurrent-request cap.
func NewServer(addr string, log *zap.Logger, vh *handler.VectorHandler) *http.Server {
	binding.EnableDecoderDisallowUnknownFields = true

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())

	if os.Getenv("ENV") != "dev" {
		r.Use(secure.New(secure.Config{
			FrameDeny:             true,
			ContentTypeNosniff:    true,
			BrowserXssFilter:      true,
			ReferrerPolicy:        "no-referrer",
			ContentSecurityPolicy: "default-src 'none'",
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.ZapLogger(log))
	r.Use(middleware.CapConcurrentRequests(256))

	vh.Register(r)

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	return &http.Server{
		Addr:    addr,
		Handler: r,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,

		MaxHeaderBytes: 1 << 15,

		ErrorLog: zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}
}
