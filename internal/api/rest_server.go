package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxel-sim/internal/logging"
	"github.com/annel0/voxel-sim/internal/middleware"
	"github.com/annel0/voxel-sim/internal/world"
	"github.com/annel0/voxel-sim/internal/world/block"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

// WorldService — операции мира, доступные через REST
type WorldService interface {
	GetBlock(x, y, z int) block.BlockID
	SetBlock(x, y, z int, id block.BlockID) (bool, error)
	Column(x, z int) terrain.Column
	Regenerate(ctx context.Context, clearOverlay bool)
	Save(ctx context.Context) error
	Load(ctx context.Context) (world.LoadResult, error)
	Stats() world.Stats
}

// RestServer представляет административный REST API мира
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	world   WorldService
	logger  *logging.Logger
	metrics *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr     string                // адрес для запуска сервера, например ":8088"
	World    WorldService          // обслуживаемый мир
	Registry prometheus.Registerer // регистр HTTP-метрик; nil — регистр по умолчанию
	Gatherer prometheus.Gatherer   // источник для /metrics; nil — регистр по умолчанию
	Logger   *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Logger == nil {
		config.Logger = logging.GetAPILogger()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:  router,
		world:   config.World,
		logger:  config.Logger,
		metrics: NewServerMetrics(),
	}
	rs.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	w := rs.router.Group("/api/world")
	{
		w.GET("/block", rs.handleGetBlock)
		w.PUT("/block", rs.handleSetBlock)
		w.GET("/column", rs.handleColumn)
		w.GET("/stats", rs.handleStats)
		w.POST("/save", rs.handleSave)
		w.POST("/load", rs.handleLoad)
		w.POST("/regenerate", rs.handleRegenerate)
	}
}

// Handler возвращает http.Handler сервера (используется в тестах)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает HTTP сервер и блокируется до его остановки
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BlockRequest — тело PUT /api/world/block
type BlockRequest struct {
	X  *int   `json:"x" binding:"required"`
	Y  *int   `json:"y" binding:"required"`
	Z  *int   `json:"z" binding:"required"`
	ID uint16 `json:"id"`
}

// BlockResponse описывает один блок
type BlockResponse struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	ID      uint16 `json:"id"`
	Name    string `json:"name"`
	Changed bool   `json:"changed,omitempty"`
}

// ColumnResponse описывает колонку наземного рельефа
type ColumnResponse struct {
	X       int           `json:"x"`
	Z       int           `json:"z"`
	Surface int           `json:"surface"`
	Biome   string        `json:"biome"`
	Tree    *TreeResponse `json:"tree,omitempty"`
}

type TreeResponse struct {
	Kind         string `json:"kind"`
	Base         int    `json:"base"`
	Top          int    `json:"top"`
	CanopyRadius int    `json:"canopy_radius"`
}

// LoadResponse — итог загрузки мира
type LoadResponse struct {
	Seed             int64  `json:"seed"`
	Overrides        int    `json:"overrides"`
	ParamsDefaulted  bool   `json:"params_defaulted"`
	OverlayDefaulted bool   `json:"overlay_defaulted"`
	ParamsError      string `json:"params_error,omitempty"`
	OverlayError     string `json:"overlay_error,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// queryInts разбирает обязательные целочисленные параметры запроса
func queryInts(c *gin.Context, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		raw, ok := c.GetQuery(name)
		if !ok {
			return nil, fmt.Errorf("не задан параметр %s", name)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("параметр %s должен быть целым: %q", name, raw)
		}
		out[i] = v
	}
	return out, nil
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (rs *RestServer) handleGetBlock(c *gin.Context) {
	xyz, err := queryInts(c, "x", "y", "z")
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	id := rs.world.GetBlock(xyz[0], xyz[1], xyz[2])
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок получен",
		Data:    BlockResponse{X: xyz[0], Y: xyz[1], Z: xyz[2], ID: uint16(id), Name: block.Name(id)},
	})
}

func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	id := block.BlockID(req.ID)
	changed, err := rs.world.SetBlock(*req.X, *req.Y, *req.Z, id)
	switch {
	case errors.Is(err, world.ErrUnknownBlock):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, world.ErrChunkNotLoaded):
		fail(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		rs.logger.Error("Запись блока (%d, %d, %d): %v", *req.X, *req.Y, *req.Z, err)
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок записан",
		Data:    BlockResponse{X: *req.X, Y: *req.Y, Z: *req.Z, ID: req.ID, Name: block.Name(id), Changed: changed},
	})
}

func (rs *RestServer) handleColumn(c *gin.Context) {
	xz, err := queryInts(c, "x", "z")
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	col := rs.world.Column(xz[0], xz[1])
	resp := ColumnResponse{X: col.X, Z: col.Z, Surface: col.Surface, Biome: col.Biome.String()}
	if col.Tree != nil {
		resp.Tree = &TreeResponse{
			Kind:         col.Tree.Kind.String(),
			Base:         col.Tree.Base,
			Top:          col.Tree.Top,
			CanopyRadius: col.Tree.CanopyRadius,
		}
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Колонка получена", Data: resp})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"world": rs.world.Stats(),
	}

	server := map[string]interface{}{
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.2f", rs.metrics.GetMemoryUsage()),
		"server_time": time.Now().Unix(),
	}
	if cpuPercent, err := rs.metrics.GetCPUUsage(); err == nil {
		server["cpu_percent"] = fmt.Sprintf("%.2f", cpuPercent)
	}
	stats["server"] = server
	stats["memory_details"] = rs.metrics.GetDetailedMemoryStats()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

func (rs *RestServer) handleSave(c *gin.Context) {
	if err := rs.world.Save(c.Request.Context()); err != nil {
		if errors.Is(err, world.ErrNoStorage) {
			fail(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		rs.logger.Error("Сохранение мира: %v", err)
		fail(c, http.StatusInternalServerError, "Не удалось сохранить мир")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сохранён"})
}

func (rs *RestServer) handleLoad(c *gin.Context) {
	res, err := rs.world.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, world.ErrNoStorage) {
			fail(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		rs.logger.Error("Загрузка мира: %v", err)
		fail(c, http.StatusInternalServerError, "Не удалось загрузить мир")
		return
	}

	resp := LoadResponse{
		Seed:             res.Params.Seed,
		Overrides:        res.Overrides,
		ParamsDefaulted:  res.ParamsDefaulted,
		OverlayDefaulted: res.OverlayDefaulted,
	}
	if res.ParamsErr != nil {
		resp.ParamsError = res.ParamsErr.Error()
	}
	if res.OverlayErr != nil {
		resp.OverlayError = res.OverlayErr.Error()
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир загружен", Data: resp})
}

func (rs *RestServer) handleRegenerate(c *gin.Context) {
	clearOverlay, err := strconv.ParseBool(c.DefaultQuery("clear", "false"))
	if err != nil {
		fail(c, http.StatusBadRequest, "параметр clear должен быть true или false")
		return
	}
	rs.world.Regenerate(c.Request.Context(), clearOverlay)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Мир перегенерирован",
		Data:    gin.H{"clear_overlay": clearOverlay},
	})
}
