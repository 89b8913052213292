package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/annel0/voxelcore/internal/engine"
	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// requestTimeout ограничивает ожидание горутины движка одним запросом
const requestTimeout = 2 * time.Second

// RestServer отладочный REST API над движком
type RestServer struct {
	router     *gin.Engine
	engine     *engine.Engine
	bus        eventbus.EventBus
	port       int
	metrics    *ServerMetrics
	encoder    *zstd.Encoder
	logger     *logging.Logger
	httpServer *http.Server

	streamsMu sync.Mutex
	closing   chan struct{}  // Закрывается в Stop; завершает websocket-потоки
	streams   sync.WaitGroup // Открытые /ws/events
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        int                   // порт для запуска сервера
	Engine      *engine.Engine        // движок, к которому обращаются обработчики
	Bus         eventbus.EventBus     // шина для /ws/events (может быть nil)
	Registerer  prometheus.Registerer // регистр HTTP-метрик (nil - глобальный)
	ServiceName string                // имя сервиса в otelgin и префикс метрик
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) (*RestServer, error) {
	if cfg.Engine == nil {
		return nil, errors.New("api: engine is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8088
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "voxelcore"
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.NewRequestLogger(nil).Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", cfg.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	rs := &RestServer{
		router:  router,
		engine:  cfg.Engine,
		bus:     cfg.Bus,
		port:    cfg.Port,
		metrics: NewServerMetrics(),
		encoder: encoder,
		logger:  logging.GetAPILogger(),
		closing: make(chan struct{}),
	}
	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)
	rs.router.GET("/ws/events", rs.handleEvents)

	v1 := rs.router.Group("/api/v1")
	{
		v1.GET("/server", rs.handleServerInfo)
		v1.GET("/blocks", rs.handleBlockCatalog)

		v1.GET("/blocks/:x/:y/:z", rs.handleGetBlock)
		v1.PUT("/blocks/:x/:y/:z", rs.handleSetBlock)
		v1.POST("/raycast", rs.handleRaycast)
		v1.POST("/interact", rs.handleInteract)

		v1.GET("/chunks", rs.handleChunks)
		v1.GET("/chunks/:cx/:cy/:cz/mesh", rs.handleChunkMesh)
		v1.GET("/draw", rs.handleDrawList)

		v1.GET("/player", rs.handleGetPlayer)
		v1.POST("/player/input", rs.handlePlayerInput)
		v1.POST("/player/teleport", rs.handleTeleport)
	}
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// do выполняет fn в горутине движка с ограничением по времени запроса
func (rs *RestServer) do(c *gin.Context, fn func(s *engine.State)) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	err := rs.engine.Do(ctx, fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, engine.ErrStopped):
		fail(c, http.StatusServiceUnavailable, "Движок остановлен")
	case errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, "Движок не ответил вовремя")
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
	return false
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, GenericResponse{Success: false, Message: message})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	status := "ok"
	select {
	case <-rs.engine.Done():
		status = "stopped"
	default:
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер в отдельной горутине
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", rs.port),
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		rs.logger.Info("🌐 REST API слушает :%d", rs.port)
		if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rs.logger.Error("❌ REST API остановлен с ошибкой: %v", err)
		}
	}()
	return nil
}

// beginStream регистрирует websocket-поток; false, если сервер уже останавливается
func (rs *RestServer) beginStream() bool {
	rs.streamsMu.Lock()
	defer rs.streamsMu.Unlock()
	select {
	case <-rs.closing:
		return false
	default:
		rs.streams.Add(1)
		return true
	}
}

// Stop плавно останавливает сервер: закрывает потоки событий, затем HTTP.
// Shutdown не ждёт захваченные websocket-соединения, поэтому потоки ждём отдельно.
func (rs *RestServer) Stop(ctx context.Context) error {
	rs.streamsMu.Lock()
	select {
	case <-rs.closing:
	default:
		close(rs.closing)
		defer rs.encoder.Close()
	}
	rs.streamsMu.Unlock()

	streamsDone := make(chan struct{})
	go func() {
		rs.streams.Wait()
		close(streamsDone)
	}()
	select {
	case <-streamsDone:
	case <-ctx.Done():
		return fmt.Errorf("websocket streams: %w", ctx.Err())
	}

	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}
