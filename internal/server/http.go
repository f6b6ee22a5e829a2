// Package server exposes the decoder over HTTP: binary uploads, hex text,
// health and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/d21d3q/geoframe/internal/config"
	"github.com/d21d3q/geoframe/internal/metrics"
	"github.com/d21d3q/geoframe/pkg/geoframe"
)

// HTTPServer serves decode requests.
type HTTPServer struct {
	cfg     *config.Config
	decoder *geoframe.Decoder
	log     *logrus.Entry
	engine  *gin.Engine
	server  *http.Server
}

// NewHTTPServer wires routes. m and gatherer may be nil when metrics are
// disabled.
func NewHTTPServer(cfg *config.Config, dec *geoframe.Decoder, m *metrics.Metrics, gatherer prometheus.Gatherer, log *logrus.Entry) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))
	if m != nil {
		engine.Use(requestMetrics(m))
	}

	h := &HTTPServer{
		cfg:     cfg,
		decoder: dec,
		log:     log,
		engine:  engine,
	}
	engine.GET("/health", h.handleHealth)
	engine.POST("/process_file", h.handleFile)
	engine.POST("/process_hex", h.handleHex)
	engine.POST("/process_raw", h.handleRaw)
	if cfg.Metrics.Enabled && gatherer != nil {
		engine.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	h.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return h
}

// Handler returns the routed handler, for tests and embedding.
func (h *HTTPServer) Handler() http.Handler {
	return h.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (h *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		h.log.WithField("addr", h.server.Addr).Info("http server listening")
		errCh <- h.server.ListenAndServe()
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
		return h.server.Shutdown(shutdownCtx)
	}
}

func (h *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPServer) handleFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Server.MaxUploadBytes+4096)
	header, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			h.fail(c, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		h.fail(c, http.StatusBadRequest, "No file part")
		return
	}
	if header.Filename == "" {
		h.fail(c, http.StatusBadRequest, "No selected file")
		return
	}
	if header.Size > h.cfg.Server.MaxUploadBytes {
		h.fail(c, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.respond(c, func(ctx context.Context, opts geoframe.DecodeOptions) (geoframe.Result, error) {
		return h.decoder.DecodeWithOptions(ctx, data, opts)
	})
}

func (h *HTTPServer) handleHex(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.cfg.Server.MaxUploadBytes+4096)
	if err := parseForm(c.Request); err != nil {
		if isTooLarge(err) {
			h.fail(c, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	text := c.Request.PostFormValue("hex_data")
	if text == "" {
		h.fail(c, http.StatusBadRequest, "No hex data")
		return
	}
	h.respond(c, func(ctx context.Context, opts geoframe.DecodeOptions) (geoframe.Result, error) {
		return h.decoder.DecodeHexWithOptions(ctx, text, opts)
	})
}

func (h *HTTPServer) handleRaw(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Server.MaxUploadBytes))
	if err != nil {
		if isTooLarge(err) {
			h.fail(c, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(c, func(ctx context.Context, opts geoframe.DecodeOptions) (geoframe.Result, error) {
		return h.decoder.DecodeWithOptions(ctx, data, opts)
	})
}

type decodeFunc func(context.Context, geoframe.DecodeOptions) (geoframe.Result, error)

func (h *HTTPServer) respond(c *gin.Context, decode decodeFunc) {
	result, err := decode(c.Request.Context(), geoframe.DecodeOptions{
		Workers:     h.cfg.Decode.Workers,
		StrictRange: h.cfg.Decode.StrictRange,
	})
	switch {
	case errors.Is(err, geoframe.ErrInvalidEncoding):
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, geoframe.ErrNoValidData):
		h.log.WithFields(logrus.Fields{
			"frames": result.Frames,
			"skips":  len(result.Skips),
		}).Info("no valid data in upload")
		h.fail(c, http.StatusBadRequest, "No valid coordinates found in the data")
		return
	case err != nil:
		h.fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.log.WithFields(logrus.Fields{
		"frames":      result.Frames,
		"coordinates": len(result.Coordinates),
		"skips":       len(result.Skips),
		"types":       result.Types(),
	}).Info("decoded upload")
	c.JSON(http.StatusOK, result.Coordinates)
}

func (h *HTTPServer) fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// parseForm surfaces body read errors that gin's PostForm discards.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(32 << 20)
	}
	return r.ParseForm()
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
