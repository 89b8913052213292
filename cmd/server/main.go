package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/voxelcore/internal/app"
	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	logging.Configure(logging.Options{
		Dir:          cfg.Logging.Dir,
		FileEnabled:  cfg.Logging.File,
		ConsoleLevel: level,
		FileLevel:    logging.DEBUG,
	})
	if err := logging.GetLoggerManager().SetLevels(cfg.Logging.Components); err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if level > logging.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	logging.Info("🎮 Запуск voxelcore: радиус %d, высота %d чанков, %d тиков/с",
		cfg.World.RadiusChunks, cfg.World.HeightChunks, cfg.Engine.TickRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("⚠️ Ошибка остановки OpenTelemetry: %v", err)
		}
	}()

	server, err := app.New(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		logging.Error("❌ Ошибка сборки сервера: %v", err)
		os.Exit(1)
	}

	port := cfg.Server.GetRESTPort()
	logging.Info("✅ Сервисы готовы")
	logging.Info("   🌐 REST API: http://localhost:%d/api/v1", port)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", port)
	logging.Info("   📡 События: ws://localhost:%d/ws/events", port)

	if err := server.Run(ctx); err != nil {
		logging.Error("❌ Сервер остановлен с ошибкой: %v", err)
		return
	}
	logging.Info("👋 Сервер успешно остановлен")
}
