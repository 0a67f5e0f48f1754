package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"esnafdefter/backend/internal/cache"
	"esnafdefter/backend/internal/metrics"
	"esnafdefter/backend/internal/render"
	"esnafdefter/backend/internal/service"
	"esnafdefter/backend/internal/store"
	"esnafdefter/backend/internal/validate"
)

const (
	maxJSONBody          = 1 << 20
	requestIDHeader      = "X-Request-Id"
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

// reservationTTL bounds how long a crashed request can hold its key.
const reservationTTL = 30 * time.Second

var (
	errInvalidID           = errors.New("invalid id")
	errIdempotencyInFlight = errors.New("a request with this idempotency key is still in progress")
	errIdempotencyMismatch = errors.New("idempotency key was already used with a different request body")
)

type Options struct {
	AllowedOrigin  string
	IdempotencyTTL time.Duration
	Render         render.Options
}

type API struct {
	service *service.Service
	replays cache.ReplayCache
	metrics *metrics.HTTPMetrics
	logger  *zap.Logger
	opts    Options
}

func New(svc *service.Service, replays cache.ReplayCache, httpMetrics *metrics.HTTPMetrics, logger *zap.Logger, opts Options) *API {
	if replays == nil {
		replays = cache.NoopReplayCache{}
	}
	if httpMetrics == nil {
		httpMetrics = metrics.NewHTTPMetrics(prometheus.NewRegistry())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}

	return &API{
		service: svc,
		replays: replays,
		metrics: httpMetrics,
		logger:  logger.Named("http"),
		opts:    opts,
	}
}

func (a *API) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(a.requestID(), a.accessLog(), a.instrument(), a.securityHeaders())

	r.GET("/healthz", a.handleHealth)
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/customers", a.handleListCustomers)
		v1.POST("/customers", a.idempotent(), a.handleAddCustomer)
		v1.GET("/customers/:id", a.handleCustomerDetail)
		v1.DELETE("/customers/:id", a.handleDeleteCustomer)
		v1.GET("/customers/:id/entries", a.handleListLedgerEntries)
		v1.POST("/customers/:id/entries", a.idempotent(), a.handleAddLedgerEntry)

		v1.DELETE("/ledger/entries/:id", a.handleDeleteLedgerEntry)
		v1.GET("/ledger/totals", a.handleLedgerTotals)

		v1.GET("/cash/entries", a.handleListCashEntries)
		v1.POST("/cash/entries", a.idempotent(), a.handleAddCashEntry)
		v1.DELETE("/cash/entries/:id", a.handleDeleteCashEntry)
		v1.GET("/cash/summary", a.handleCashSummary)

		v1.GET("/reports/debt", a.handleDebtReport)
		v1.GET("/reports/cash", a.handleCashReport)
	}

	return r
}

func (a *API) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (a *API) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		a.logger.Info("http request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}

func (a *API) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		a.metrics.Started()
		c.Next()
		a.metrics.Finished(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func (a *API) securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Access-Control-Allow-Origin", a.opts.AllowedOrigin)
		h.Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key, X-Request-Id")
		h.Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		h.Set("Access-Control-Expose-Headers", "X-Request-Id, Idempotent-Replayed, Content-Disposition")
		h.Set("Vary", "Origin")

		if c.Request.Method == http.MethodPost && strings.Contains(strings.ToLower(c.GetHeader("Content-Type")), "application/json") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBody)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// bodyRecorder tees the response body so an idempotent create can be replayed.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// idempotent replays the first successful response stored under the
// request's Idempotency-Key. The key is reserved while its first request
// runs, and a replay is only served for an identical body. Cache failures
// degrade to a normal request.
func (a *API) idempotent() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		cacheKey := c.Request.URL.Path + ":" + key

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			a.writeError(c, http.StatusBadRequest, err)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		fingerprint := hex.EncodeToString(sum[:])

		if a.replayStored(c, cacheKey, key, fingerprint) {
			return
		}

		reserved, err := a.replays.Reserve(ctx, cacheKey, reservationTTL)
		if err != nil {
			a.logger.Warn("idempotency reservation failed", zap.String("key", key), zap.Error(err))
			reserved = true
		}
		if !reserved {
			a.writeError(c, http.StatusConflict, errIdempotencyInFlight)
			return
		}
		defer func() {
			if err := a.replays.Release(context.WithoutCancel(ctx), cacheKey); err != nil {
				a.logger.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
			}
		}()

		// The first request may have finished between the lookup and the
		// reservation.
		if a.replayStored(c, cacheKey, key, fingerprint) {
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status < 200 || status >= 300 {
			return
		}
		stored := &cache.Replay{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
			Fingerprint: fingerprint,
		}
		if err := a.replays.Set(ctx, cacheKey, stored, a.opts.IdempotencyTTL); err != nil {
			a.logger.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// replayStored answers from the cache when a response is stored for
// cacheKey. It reports whether the request was handled.
func (a *API) replayStored(c *gin.Context, cacheKey string, key string, fingerprint string) bool {
	replay, found, err := a.replays.Get(c.Request.Context(), cacheKey)
	if err != nil {
		a.logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if replay.Fingerprint != fingerprint {
		a.writeError(c, http.StatusUnprocessableEntity, errIdempotencyMismatch)
		return true
	}
	c.Header(replayedHeader, "true")
	c.Data(replay.Status, replay.ContentType, replay.Body)
	c.Abort()
	return true
}

func (a *API) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func decodeJSON(c *gin.Context, dest any) error {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// statusFor maps service errors onto HTTP statuses; anything unrecognised
// is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validate.ErrInvalidDate),
		errors.Is(err, validate.ErrInvalidAmount),
		errors.Is(err, validate.ErrEmptyName),
		errors.Is(err, validate.ErrInvalidKind),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrCustomerNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(c *gin.Context, err error) {
	a.writeError(c, statusFor(err), err)
}

func (a *API) writeError(c *gin.Context, status int, err error) {
	// 5xx bodies stay generic so storage errors never reach the client.
	msg := err.Error()
	if status >= 500 {
		a.logger.Error("internal error",
			zap.Int("status", status),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	writeJSON(c, status, gin.H{"error": msg})
	c.Abort()
}

func writeJSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
