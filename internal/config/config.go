package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Islands   IslandsConfig   `yaml:"islands"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Player    PlayerConfig    `yaml:"player"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Events    EventsConfig    `yaml:"events"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Seed          int64 `yaml:"seed"`
	ChunkWidth    int   `yaml:"chunk_width"`
	ChunkHeight   int   `yaml:"chunk_height"`
	DrawDistance  int   `yaml:"draw_distance"`
	EvictDistance int   `yaml:"evict_distance"` // 0 — без выгрузки
	AsyncLoading  bool  `yaml:"async_loading"`

	AutoSave time.Duration `yaml:"autosave_interval"` // 0 — без автосохранения
}

type IslandsConfig struct {
	Count         int     `yaml:"count"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Spread        float64 `yaml:"spread"`
	MinAltitude   float64 `yaml:"min_altitude"`
	AltitudeRange float64 `yaml:"altitude_range"`
}

type PhysicsConfig struct {
	Gravity        float64 `yaml:"gravity"`
	SimulationRate float64 `yaml:"simulation_rate"`
	MaxIterations  int     `yaml:"max_iterations"`
}

// StepSize возвращает длительность одного шага симуляции в секундах
func (p PhysicsConfig) StepSize() float64 {
	return 1 / p.SimulationRate
}

type PlayerConfig struct {
	Radius    float64    `yaml:"radius"`
	Height    float64    `yaml:"height"`
	MaxSpeed  float64    `yaml:"max_speed"`
	JumpSpeed float64    `yaml:"jump_speed"`
	Spawn     [3]float64 `yaml:"spawn"`
}

type SchedulerConfig struct {
	IdleBudget  time.Duration `yaml:"idle_budget"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
	FrameRate   int           `yaml:"frame_rate"`
}

// StorageConfig описывает транспорт для сохранения двух записей мира.
// Backend: memory | file | badger | redis | mysql | sqlite | mongo | nats
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`

	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`

	NATSURL    string `yaml:"nats_url"`
	NATSBucket string `yaml:"nats_bucket"`

	Timeout time.Duration `yaml:"timeout"`
}

// EventsConfig описывает шину событий мира. Backend: none | memory | jetstream
type EventsConfig struct {
	Backend   string        `yaml:"backend"`
	Buffer    int           `yaml:"buffer"`
	NATSURL   string        `yaml:"nats_url"`
	Stream    string        `yaml:"stream"`
	Retention time.Duration `yaml:"retention"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:          0,
			ChunkWidth:    32,
			ChunkHeight:   32,
			DrawDistance:  3,
			EvictDistance: 5,
			AsyncLoading:  true,
			AutoSave:      5 * time.Minute,
		},
		Islands: IslandsConfig{
			Count:         1000,
			Width:         8,
			Height:        8,
			Spread:        5000,
			MinAltitude:   150,
			AltitudeRange: 100,
		},
		Physics: PhysicsConfig{
			Gravity:        32,
			SimulationRate: 250,
			MaxIterations:  100,
		},
		Player: PlayerConfig{
			Radius:    0.5,
			Height:    1.75,
			MaxSpeed:  10,
			JumpSpeed: 10,
			Spawn:     [3]float64{16, 40, 16},
		},
		Scheduler: SchedulerConfig{
			IdleBudget:  4 * time.Millisecond,
			TaskTimeout: time.Second,
			FrameRate:   60,
		},
		Storage: StorageConfig{
			Backend:         "badger",
			Path:            "data",
			KeyPrefix:       "voxel:",
			MongoDatabase:   "voxelsim",
			MongoCollection: "world_records",
			NATSBucket:      "voxel_world",
			Timeout:         5 * time.Second,
		},
		Events: EventsConfig{
			Backend:   "memory",
			Buffer:    1024,
			NATSURL:   "nats://localhost:4222",
			Stream:    "VOXEL_EVENTS",
			Retention: 24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-sim",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.World.ChunkWidth <= 0 || c.World.ChunkHeight <= 0 {
		return fmt.Errorf("размеры чанка должны быть положительными: %dx%d", c.World.ChunkWidth, c.World.ChunkHeight)
	}
	if c.World.DrawDistance < 0 || c.World.EvictDistance < 0 {
		return fmt.Errorf("дистанции прорисовки и выгрузки не могут быть отрицательными")
	}
	if c.World.AutoSave < 0 {
		return fmt.Errorf("autosave_interval не может быть отрицательным")
	}
	if c.World.EvictDistance != 0 && c.World.EvictDistance < c.World.DrawDistance {
		return fmt.Errorf("evict_distance (%d) меньше draw_distance (%d)", c.World.EvictDistance, c.World.DrawDistance)
	}
	if c.Islands.Count < 0 || (c.Islands.Count > 0 && (c.Islands.Width <= 0 || c.Islands.Height <= 0)) {
		return fmt.Errorf("некорректные параметры островов")
	}
	if c.Physics.SimulationRate <= 0 {
		return fmt.Errorf("simulation_rate должен быть положительным")
	}
	if c.Physics.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations должен быть положительным")
	}
	if c.Player.Radius <= 0 || c.Player.Height <= 0 {
		return fmt.Errorf("размеры игрока должны быть положительными")
	}
	return nil
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
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

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
