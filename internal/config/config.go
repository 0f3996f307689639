// Package config loads globe.cfg.json through viper and exposes typed views of it.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/poseidonvest/globe/internal/cluster"
	"github.com/poseidonvest/globe/internal/geo"
	"github.com/poseidonvest/globe/internal/rotation"
	"github.com/poseidonvest/globe/internal/scene"
)

// FileName is the config file looked up in the config directory.
const FileName = "globe.cfg.json"

// GlobeConfig holds the static scene setup.
type GlobeConfig struct {
	Radius        float64 `json:"radius" mapstructure:"radius"`
	CountriesFile string  `json:"countriesFile" mapstructure:"countriesFile"`
}

// AnimationConfig holds per-frame animation constants.
type AnimationConfig struct {
	Rotation          rotation.Config `json:"rotation"`
	ReferenceDistance float64         `json:"referenceDistance" mapstructure:"referenceDistance"`
}

// MarketConfig holds the financial center table and its refresh cadence.
type MarketConfig struct {
	Centers         []scene.CenterSite `json:"centers" mapstructure:"centers"`
	RefreshInterval time.Duration      `json:"refreshInterval" mapstructure:"refreshInterval"`
}

// HostConfig holds settings of the host frame loop.
type HostConfig struct {
	FrameRate      int      `json:"frameRate" mapstructure:"frameRate"`
	Camera         geo.Vec3 `json:"camera" mapstructure:"camera"`
	InputQueueSize int      `json:"inputQueueSize" mapstructure:"inputQueueSize"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	EventsFile     string `json:"eventsFile" mapstructure:"eventsFile"`
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage settings. An empty Path keeps the database in memory.
type SQLiteConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	DumpPath string `json:"dumpPath" mapstructure:"dumpPath"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// InfluxConfig holds InfluxDB settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// URL returns the server URL.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds GELF output settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// StreamConfig holds renderer WebSocket settings.
type StreamConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	URL        string `json:"url" mapstructure:"url"`
	FrameEvery int    `json:"frameEvery" mapstructure:"frameEvery"`
	BufferSize int    `json:"bufferSize" mapstructure:"bufferSize"`
}

// APIConfig holds economic calendar feed settings.
type APIConfig struct {
	ServerURL  string        `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey     string        `json:"apiKey" mapstructure:"apiKey"`
	WindowDays int           `json:"windowDays" mapstructure:"windowDays"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
}

// SetDefaults registers every default value. Load calls it.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("globe.radius", scene.GlobeRadius)
	viper.SetDefault("globe.countriesFile", "")

	viper.SetDefault("animation.lerpFactor", rotation.DefaultLerpFactor)
	viper.SetDefault("animation.epsilon", rotation.DefaultEpsilon)
	viper.SetDefault("animation.autoRotateStep", rotation.DefaultAutoRotateStep)
	viper.SetDefault("animation.cloudAutoRotateStep", rotation.DefaultCloudAutoRotateStep)
	viper.SetDefault("animation.cloudParallax", rotation.DefaultCloudParallax)
	viper.SetDefault("animation.referenceDistance", 4.0)

	viper.SetDefault("layout.stemHeight", cluster.DefaultStemHeight)
	viper.SetDefault("layout.clusterRadius", cluster.DefaultClusterRadius)

	viper.SetDefault("market.refreshInterval", "60s")

	viper.SetDefault("host.frameRate", 60)
	viper.SetDefault("host.camera", "0,0,7.5")
	viper.SetDefault("host.inputQueueSize", 256)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.eventsFile", "./events.json")
	viper.SetDefault("storage.memory.outputDir", "./status")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./globe.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "globe")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "globe")
	viper.SetDefault("influx.bucket", "markets")
	viper.SetDefault("influx.backupPath", "./influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "globe")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5000/ws")
	viper.SetDefault("stream.frameEvery", 2)
	viper.SetDefault("stream.bufferSize", 256)

	viper.SetDefault("api.serverUrl", "https://financeflowapi.com")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.windowDays", 7)
	viper.SetDefault("api.timeout", "30s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetGlobeConfig returns the static scene setup.
func GetGlobeConfig() GlobeConfig {
	return GlobeConfig{
		Radius:        viper.GetFloat64("globe.radius"),
		CountriesFile: viper.GetString("globe.countriesFile"),
	}
}

// GetAnimationConfig returns the rotation and pulse constants.
func GetAnimationConfig() AnimationConfig {
	return AnimationConfig{
		Rotation: rotation.Config{
			LerpFactor:          viper.GetFloat64("animation.lerpFactor"),
			Epsilon:             viper.GetFloat64("animation.epsilon"),
			AutoRotateStep:      viper.GetFloat64("animation.autoRotateStep"),
			CloudAutoRotateStep: viper.GetFloat64("animation.cloudAutoRotateStep"),
			CloudParallax:       viper.GetFloat64("animation.cloudParallax"),
		},
		ReferenceDistance: viper.GetFloat64("animation.referenceDistance"),
	}
}

// GetLayoutConfig returns the event cluster geometry.
func GetLayoutConfig() cluster.Layout {
	return cluster.Layout{
		StemHeight:    viper.GetFloat64("layout.stemHeight"),
		ClusterRadius: viper.GetFloat64("layout.clusterRadius"),
	}
}

// GetMarketConfig returns the center table, falling back to the built-in centers
// when the config file does not list any.
func GetMarketConfig() (MarketConfig, error) {
	cfg := MarketConfig{
		Centers:         scene.DefaultCenterSites,
		RefreshInterval: viper.GetDuration("market.refreshInterval"),
	}
	if viper.IsSet("market.centers") {
		var centers []scene.CenterSite
		if err := viper.UnmarshalKey("market.centers", &centers); err != nil {
			return MarketConfig{}, fmt.Errorf("decoding market.centers: %w", err)
		}
		cfg.Centers = centers
	}
	if cfg.RefreshInterval <= 0 {
		return MarketConfig{}, fmt.Errorf("market.refreshInterval must be positive, got %s", cfg.RefreshInterval)
	}
	return cfg, nil
}

// GetHostConfig returns the frame loop settings.
func GetHostConfig() (HostConfig, error) {
	camera, err := geo.Vec3FromString(viper.GetString("host.camera"))
	if err != nil {
		return HostConfig{}, fmt.Errorf("host.camera: %w", err)
	}
	cfg := HostConfig{
		FrameRate:      viper.GetInt("host.frameRate"),
		Camera:         camera,
		InputQueueSize: viper.GetInt("host.inputQueueSize"),
	}
	if cfg.FrameRate <= 0 {
		return HostConfig{}, fmt.Errorf("host.frameRate must be positive, got %d", cfg.FrameRate)
	}
	return cfg, nil
}

// GetSceneConfig assembles the scene settings from the animation, layout and host sections.
func GetSceneConfig() (scene.Config, error) {
	host, err := GetHostConfig()
	if err != nil {
		return scene.Config{}, err
	}
	anim := GetAnimationConfig()
	return scene.Config{
		Rotation:          anim.Rotation,
		Layout:            GetLayoutConfig(),
		ReferenceDistance: anim.ReferenceDistance,
		Camera:            host.Camera,
	}, nil
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			EventsFile:     viper.GetString("storage.memory.eventsFile"),
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:     viper.GetString("storage.sqlite.path"),
			DumpPath: viper.GetString("storage.sqlite.dumpPath"),
		},
	}
}

// GetDatabaseConfig returns the Postgres connection settings.
func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Protocol:   viper.GetString("influx.protocol"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetStreamConfig returns the renderer WebSocket settings.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		Enabled:    viper.GetBool("stream.enabled"),
		URL:        viper.GetString("stream.url"),
		FrameEvery: max(1, viper.GetInt("stream.frameEvery")),
		BufferSize: viper.GetInt("stream.bufferSize"),
	}
}

// GetAPIConfig returns the calendar feed settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL:  viper.GetString("api.serverUrl"),
		APIKey:     viper.GetString("api.apiKey"),
		WindowDays: viper.GetInt("api.windowDays"),
		Timeout:    viper.GetDuration("api.timeout"),
	}
}

// RegistryConfig is everything needed to build the marker registry.
type RegistryConfig struct {
	Radius    float64
	Centers   []scene.CenterSite
	Countries []scene.CountrySite
}

// GetRegistryConfig resolves the center table and the country table, reading the
// country YAML file when globe.countriesFile is set.
func GetRegistryConfig() (RegistryConfig, error) {
	globe := GetGlobeConfig()
	market, err := GetMarketConfig()
	if err != nil {
		return RegistryConfig{}, err
	}
	countries := scene.DefaultCountries
	if globe.CountriesFile != "" {
		countries, err = scene.LoadCountries(globe.CountriesFile)
		if err != nil {
			return RegistryConfig{}, fmt.Errorf("globe.countriesFile: %w", err)
		}
	}
	return RegistryConfig{
		Radius:    globe.Radius,
		Centers:   market.Centers,
		Countries: countries,
	}, nil
}
