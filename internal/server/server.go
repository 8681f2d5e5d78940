// Package server runs the Lambda handlers behind a local gin router so the
// whole site backend can be exercised without AWS.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/catalog"
)

const functionsPrefix = "/functions/v1"

type StreamHandler interface {
	Handle(ctx context.Context, req events.LambdaFunctionURLRequest) (*events.LambdaFunctionURLStreamingResponse, error)
}

type ProxyHandler interface {
	Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// HTTPObserver records served requests; *metrics.Metrics implements it.
type HTTPObserver interface {
	ObserveHTTP(method, path string, status int, d time.Duration)
}

// Deps are the routes' backends. Nil handlers leave their route unregistered.
type Deps struct {
	Chat     StreamHandler
	Email    ProxyHandler
	SMS      ProxyHandler
	Quote    ProxyHandler
	Catalog  *catalog.Catalog
	Gatherer prometheus.Gatherer
	Observer HTTPObserver
	Logger   *slog.Logger
}

type Server struct {
	router *gin.Engine
	logger *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"authorization", "x-client-info", "apikey", "content-type", "x-correlation-id"},
		ExposeHeaders:   []string{"X-Correlation-Id"},
		MaxAge:          12 * time.Hour,
	}))
	if d.Observer != nil {
		router.Use(observe(d.Observer))
	}

	s := &Server{router: router, logger: logger}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	cat := d.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	router.GET("/content", func(c *gin.Context) {
		c.JSON(http.StatusOK, cat)
	})

	fn := router.Group(functionsPrefix)
	if d.Chat != nil {
		fn.POST("/cleaning-chat", s.stream(d.Chat))
		fn.OPTIONS("/cleaning-chat", s.stream(d.Chat))
	}
	for name, h := range map[string]ProxyHandler{
		"send-lead-email": d.Email,
		"send-lead-sms":   d.SMS,
		"quote-wizard":    d.Quote,
	} {
		if h == nil {
			continue
		}
		fn.POST("/"+name, s.proxy(h))
		fn.OPTIONS("/"+name, s.proxy(h))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains for up to five
// seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) proxy(h ProxyHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		resp, err := h.Handle(c.Request.Context(), events.APIGatewayProxyRequest{
			HTTPMethod: c.Request.Method,
			Path:       c.Request.URL.Path,
			Headers:    flatten(c.Request.Header),
			Body:       string(body),
		})
		if err != nil {
			s.logger.Error("handler failed", "path", c.FullPath(), "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unknown error"})
			return
		}
		for k, v := range resp.Headers {
			c.Header(k, v)
		}
		c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
	}
}

func (s *Server) stream(h StreamHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		req := events.LambdaFunctionURLRequest{
			RawPath: c.Request.URL.Path,
			Headers: flatten(c.Request.Header),
			Body:    string(body),
		}
		req.RequestContext.HTTP.Method = c.Request.Method
		req.RequestContext.HTTP.Path = c.Request.URL.Path

		resp, err := h.Handle(c.Request.Context(), req)
		if err != nil {
			s.logger.Error("stream handler failed", "path", c.FullPath(), "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unknown error"})
			return
		}
		if closer, ok := resp.Body.(io.Closer); ok {
			defer func() { _ = closer.Close() }()
		}
		for k, v := range resp.Headers {
			c.Header(k, v)
		}
		c.Status(resp.StatusCode)
		if resp.Body == nil {
			return
		}

		buf := make([]byte, 4096)
		for {
			n, rerr := resp.Body.Read(buf)
			if n > 0 {
				if _, werr := c.Writer.Write(buf[:n]); werr != nil {
					return
				}
				c.Writer.Flush()
			}
			if rerr != nil {
				if !errors.Is(rerr, io.EOF) {
					s.logger.Warn("stream copy ended early", "err", rerr)
				}
				return
			}
		}
	}
}

func observe(o HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		o.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// flatten keeps the first value of each header, lower-cased the way function
// URLs deliver them.
func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[strings.ToLower(k)] = v[0]
		}
	}
	return out
}
