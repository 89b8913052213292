package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig возвращается Validate при недопустимых значениях
var ErrInvalidConfig = errors.New("invalid config")

// Config корневая структура конфигурации сервера.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Engine    EngineConfig    `yaml:"engine"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Atlas     AtlasConfig     `yaml:"atlas"`
}

type WorldConfig struct {
	Seed          int64  `yaml:"seed"`
	RadiusChunks  int    `yaml:"radius_chunks"`  // Загружаются чанки x,z ∈ [-radius, radius]
	HeightChunks  int    `yaml:"height_chunks"`  // и y ∈ [0, height)
	UnloadedFaces string `yaml:"unloaded_faces"` // visible | occluded
	Generate      bool   `yaml:"generate"`       // Заполнить ландшафтом при старте
}

type EngineConfig struct {
	TickRate   int `yaml:"tick_rate"`   // Тиков симуляции в секунду
	EventQueue int `yaml:"event_queue"` // Размер буфера шины событий
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type LoggingConfig struct {
	Level      string            `yaml:"level"`
	Dir        string            `yaml:"dir"`
	File       bool              `yaml:"file"`
	Components map[string]string `yaml:"components"` // Уровень консоли по компонентам: mesh: debug
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`     // host:port OTLP HTTP; пусто - переменные OTEL_* или localhost:4318
	Insecure    bool    `yaml:"insecure"`     // Без TLS
	SampleRatio float64 `yaml:"sample_ratio"` // Доля трассируемых корневых спанов
}

type AtlasConfig struct {
	Size     int              `yaml:"size"`
	TileSize int              `yaml:"tile_size"`
	Blocks   map[string][]int `yaml:"blocks"` // Имя блока -> 1, 3 или 6 номеров тайлов
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:          1296,
			RadiusChunks:  4,
			HeightChunks:  4,
			UnloadedFaces: "visible",
			Generate:      true,
		},
		Engine: EngineConfig{
			TickRate:   60,
			EventQueue: 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxelcore",
			Insecure:    true,
			SampleRatio: 1,
		},
		Atlas: AtlasConfig{
			Size:     1024,
			TileSize: 16,
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	var problems []string

	if c.World.RadiusChunks < 0 {
		problems = append(problems, "world.radius_chunks must be >= 0")
	}
	if c.World.HeightChunks <= 0 {
		problems = append(problems, "world.height_chunks must be > 0")
	}
	switch strings.ToLower(c.World.UnloadedFaces) {
	case "", "visible", "occluded":
	default:
		problems = append(problems, fmt.Sprintf("world.unloaded_faces %q must be visible or occluded", c.World.UnloadedFaces))
	}
	if c.Engine.TickRate <= 0 || c.Engine.TickRate > 1000 {
		problems = append(problems, "engine.tick_rate must be in (0, 1000]")
	}
	if c.Engine.EventQueue <= 0 {
		problems = append(problems, "engine.event_queue must be > 0")
	}
	if c.Server.RESTPort < 0 || c.Server.RESTPort > 65535 {
		problems = append(problems, "server.rest_port out of range")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		problems = append(problems, "telemetry.sample_ratio must be in [0, 1]")
	}
	if c.Atlas.Size <= 0 || c.Atlas.TileSize <= 0 || c.Atlas.Size%c.Atlas.TileSize != 0 {
		problems = append(problems, "atlas.size must be a positive multiple of atlas.tile_size")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG; без него возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
