// Package app собирает сервер из конфигурации: мир, движок, шину событий и REST API
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxelcore/internal/api"
	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/engine"
	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/mesh"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
)

// shutdownTimeout время на плавную остановку HTTP
const shutdownTimeout = 5 * time.Second

// App запущенный экземпляр сервера
type App struct {
	cfg      *config.Config
	world    *world.World
	engine   *engine.Engine
	bus      eventbus.EventBus
	exporter *eventbus.MetricsExporter
	logSub   eventbus.Subscription
	rest     *api.RestServer
	logger   *logging.Logger
}

// BuildUVMap строит карту текстур: раскладка по умолчанию, поверх неё блоки из конфига.
// Все размещаемые блоки обязаны иметь текстуру.
func BuildUVMap(cfg config.AtlasConfig) (mesh.UVMap, error) {
	layout, err := mesh.NewAtlasLayout(cfg.Size, cfg.TileSize)
	if err != nil {
		return nil, err
	}

	tiles := mesh.DefaultTiles()
	overrides, err := mesh.TilesFromNames(cfg.Blocks)
	if err != nil {
		return nil, err
	}
	for id, t := range overrides {
		tiles[id] = t
	}

	uv, err := layout.BuildUVMap(tiles)
	if err != nil {
		return nil, err
	}
	if missing := uv.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: no texture for %v", mesh.ErrInvalidAtlas, missing)
	}
	return uv, nil
}

// BuildWorld загружает объём чанков и, если нужно, генерирует ландшафт.
// Возвращает точку появления игрока над поверхностью в начале координат.
func BuildWorld(cfg config.WorldConfig) (*world.World, mgl32.Vec3) {
	w := world.NewWorld()
	w.PreloadEmpty(cfg.RadiusChunks, cfg.HeightChunks)

	spawn := engine.DefaultSpawn
	if !cfg.Generate {
		return w, spawn
	}

	logger := logging.GetWorldLogger()
	start := time.Now()
	gen := world.NewWorldGenerator(cfg.Seed)
	gen.Populate(w)
	logger.Info("⛰ ландшафт сгенерирован: сид %d, %d чанков (%s)", cfg.Seed, w.Len(), time.Since(start))

	// Ставим игрока на самый высокий твёрдый блок колонки (0, 0), учитывая деревья
	top := world.ChunkSize*cfg.HeightChunks - 1
	for y := top; y >= 0; y-- {
		if w.IsSolid(0, y, 0) {
			spawn = mgl32.Vec3{0.5, float32(y + 1), 0.5}
			break
		}
	}
	logger.Debug("точка появления %v", spawn)
	return w, spawn
}

// New собирает сервер из конфигурации. Регистр метрик может быть nil.
func New(cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	logger := logging.GetAppLogger()

	policy, err := mesh.ParseUnloadedPolicy(cfg.World.UnloadedFaces)
	if err != nil {
		return nil, err
	}
	uv, err := BuildUVMap(cfg.Atlas)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	w, spawn := BuildWorld(cfg.World)
	logger.Info("🌍 мир готов: %d чанков, сид %d, генерация %v (%s)",
		w.Len(), cfg.World.Seed, cfg.World.Generate, time.Since(start))

	bus := eventbus.NewMemoryBus(cfg.Engine.EventQueue)
	logSub, err := eventbus.StartLoggingListener(bus)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	eng := engine.New(w, uv, engine.Options{
		TickRate:   cfg.Engine.TickRate,
		Policy:     policy,
		Bus:        bus,
		Registerer: reg,
		Spawn:      &spawn,
	})

	rest, err := api.NewRestServer(api.Config{
		Port:        cfg.Server.GetRESTPort(),
		Engine:      eng,
		Bus:         bus,
		Registerer:  reg,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		logSub.Unsubscribe()
		_ = bus.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		world:    w,
		engine:   eng,
		bus:      bus,
		exporter: eventbus.NewMetricsExporter(bus, reg),
		logSub:   logSub,
		rest:     rest,
		logger:   logger,
	}, nil
}

// Engine возвращает движок
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Run перестраивает все меши, запускает REST API и цикл движка до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	// Первый тик выполняется до приёма запросов, чтобы меши были готовы
	stats := a.engine.Step(ctx)
	a.logger.Info("🧱 начальные меши: %d чанков, %d граней за %s", stats.Chunks, stats.Faces, stats.Duration)

	a.exporter.Start()
	if err := a.rest.Start(); err != nil {
		return err
	}

	err := a.engine.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.shutdown()
	return err
}

// Stop просит Run завершиться
func (a *App) Stop() {
	a.engine.Stop()
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.rest.Stop(ctx); err != nil {
		a.logger.Error("❌ Ошибка остановки REST API: %v", err)
	}
	a.exporter.Stop()
	a.logSub.Unsubscribe()
	if err := a.bus.Close(); err != nil {
		a.logger.Error("❌ Ошибка закрытия шины событий: %v", err)
	}

	stats := a.bus.Metrics()
	a.logger.Info("📊 событий опубликовано %d, доставлено %d, потеряно %d", stats.Published, stats.Consumed, stats.Dropped)

	if err := logging.GetLoggerManager().CloseAll(); err != nil {
		a.logger.Error("❌ Ошибка закрытия логов: %v", err)
	}
}
