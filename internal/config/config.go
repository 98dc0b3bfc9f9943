package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nabilhasan01/CSE499A/internal/model"
)

const DefaultPath = "config.yaml"

// Sensor source modes for the controller.
const (
	SensorHTTP   = "http"
	SensorSerial = "serial"
	SensorNone   = "none"
)

// ServerConfig configures the prediction service.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	OnnxRuntimeLib string   `yaml:"onnxruntime_lib"`
	LeafModel      string   `yaml:"leaf_model"`
	LeafMetadata   string   `yaml:"leaf_metadata"`
	CropModel      string   `yaml:"crop_model"`
	CropMetadata   string   `yaml:"crop_metadata"`
	AllowOrigins   []string `yaml:"allow_origins"`
	MaxUploadMB    int64    `yaml:"max_upload_mb"`
}

// EmulatorConfig configures the dummy sensor/camera node.
type EmulatorConfig struct {
	Port           string                `yaml:"port"`
	FilesDir       string                `yaml:"files_dir"`
	CameraFile     string                `yaml:"camera_file"`
	SensorInterval time.Duration         `yaml:"sensor_interval"`
	ImageInterval  time.Duration         `yaml:"image_interval"`
	Presets        []model.SensorReading `yaml:"presets"`
}

// ControllerConfig configures the polling loop.
type ControllerConfig struct {
	PredictURL    string        `yaml:"predict_url"`
	CameraURL     string        `yaml:"camera_url"`
	SensorMode    string        `yaml:"sensor_mode"`
	SensorURL     string        `yaml:"sensor_url"`
	SerialPort    string        `yaml:"serial_port"`
	SerialBaud    int           `yaml:"serial_baud"`
	Interval      time.Duration `yaml:"interval"`
	FallbackDelay time.Duration `yaml:"fallback_delay"`
	StepGap       time.Duration `yaml:"step_gap"`
	Timeout       time.Duration `yaml:"timeout"`
	Rotate        int           `yaml:"rotate"`
	CaptureDir    string        `yaml:"capture_dir"`
	Journal       bool          `yaml:"journal"`
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	LogFile      string `yaml:"log_file"`
	LogToConsole bool   `yaml:"log_to_console"`
	LogLevel     string `yaml:"log_level"`
}

// Config holds the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Emulator   EmulatorConfig   `yaml:"emulator"`
	Controller ControllerConfig `yaml:"controller"`
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
}

// Load reads the YAML file at path, applies .env and environment
// overrides, fills defaults and validates the result. An empty path
// means config.yaml, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := &Config{Logging: LoggingConfig{LogToConsole: true}}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		log.Printf("config file %s not found, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.OnnxRuntimeLib, "ONNXRUNTIME_LIB")
	setString(&c.Emulator.Port, "EMULATOR_PORT")
	setString(&c.Emulator.FilesDir, "EMULATOR_FILES_DIR")
	setString(&c.Controller.PredictURL, "PREDICT_URL")
	setString(&c.Controller.CameraURL, "CAMERA_URL")
	setString(&c.Controller.SensorURL, "SENSOR_URL")
	setString(&c.Controller.SensorMode, "SENSOR_MODE")
	setString(&c.Controller.SerialPort, "SERIAL_PORT")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Logging.LogLevel, "LOG_LEVEL")
	if v, ok := os.LookupEnv("JOURNAL"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Controller.Journal = b
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Port == "" {
		s.Port = "8000"
	}
	if s.LeafModel == "" {
		s.LeafModel = "models/leaf_model.onnx"
	}
	if s.LeafMetadata == "" {
		s.LeafMetadata = "models/leaf_metadata.json"
	}
	if s.CropModel == "" {
		s.CropModel = "models/crop_model.onnx"
	}
	if s.CropMetadata == "" {
		s.CropMetadata = "models/crop_metadata.json"
	}
	if len(s.AllowOrigins) == 0 {
		s.AllowOrigins = []string{"*"}
	}
	if s.MaxUploadMB == 0 {
		s.MaxUploadMB = 10
	}

	e := &c.Emulator
	if e.Port == "" {
		e.Port = "8080"
	}
	if e.FilesDir == "" {
		e.FilesDir = "files"
	}
	if e.CameraFile == "" {
		e.CameraFile = "cam-hi.jpg"
	}
	if e.SensorInterval == 0 {
		e.SensorInterval = time.Second
	}
	if e.ImageInterval == 0 {
		e.ImageInterval = 5 * time.Second
	}
	if len(e.Presets) == 0 {
		e.Presets = DefaultPresets()
	}

	ctl := &c.Controller
	if ctl.PredictURL == "" {
		ctl.PredictURL = "http://127.0.0.1:8000"
	}
	if ctl.CameraURL == "" {
		ctl.CameraURL = "http://127.0.0.1:8080/files/cam-hi.jpg"
	}
	if ctl.SensorMode == "" {
		ctl.SensorMode = SensorHTTP
	}
	if ctl.SensorURL == "" {
		ctl.SensorURL = "http://127.0.0.1:8080/handledata"
	}
	if ctl.SerialBaud == 0 {
		ctl.SerialBaud = 115200
	}
	if ctl.Interval == 0 {
		ctl.Interval = 3 * time.Second
	}
	if ctl.FallbackDelay == 0 {
		ctl.FallbackDelay = 3 * time.Second
	}
	if ctl.StepGap == 0 {
		ctl.StepGap = 500 * time.Millisecond
	}
	if ctl.Timeout == 0 {
		ctl.Timeout = 10 * time.Second
	}

	if c.Logging.LogLevel == "" {
		c.Logging.LogLevel = "info"
	}

	c.Database.applyDefaults()
}

// DefaultPresets are the canned readings served by the emulator.
func DefaultPresets() []model.SensorReading {
	return []model.SensorReading{
		{Temperature: 29.49, Humidity: 94.73, PH: 6.19},
		{Temperature: 26.18, Humidity: 86.52, PH: 6.26},
		{Temperature: 43.36, Humidity: 93.35, PH: 6.94},
		{Temperature: 34.28, Humidity: 90.56, PH: 6.83},
		{Temperature: 22.91, Humidity: 90.70, PH: 5.60},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server max_upload_mb must not be negative")
	}
	for _, o := range c.Server.AllowOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("server allow_origins: %q must be * or start with http:// or https://", o)
		}
	}
	if c.Emulator.SensorInterval < 0 || c.Emulator.ImageInterval < 0 {
		return fmt.Errorf("emulator intervals must be positive")
	}

	ctl := c.Controller
	for name, raw := range map[string]string{"predict_url": ctl.PredictURL, "camera_url": ctl.CameraURL} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("controller %s: %w", name, err)
		}
	}
	switch ctl.SensorMode {
	case SensorHTTP:
		if err := validateURL(ctl.SensorURL); err != nil {
			return fmt.Errorf("controller sensor_url: %w", err)
		}
	case SensorSerial:
		if ctl.SerialPort == "" {
			return fmt.Errorf("controller serial_port is required in serial mode")
		}
	case SensorNone:
	default:
		return fmt.Errorf("unsupported sensor mode: %s", ctl.SensorMode)
	}
	if ctl.Rotate != 0 && ctl.Rotate != 180 {
		return fmt.Errorf("controller rotate must be 0 or 180, got %d", ctl.Rotate)
	}
	if ctl.Interval < 0 || ctl.FallbackDelay < 0 || ctl.StepGap < 0 || ctl.Timeout < 0 {
		return fmt.Errorf("controller durations must not be negative")
	}

	switch c.Logging.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Logging.LogLevel)
	}

	if ctl.Journal {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// ProjectRoot returns the directory relative paths are resolved against.
// When started from cmd/<binary> it walks back up to the repository root.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if filepath.Base(filepath.Dir(wd)) == "cmd" {
		return filepath.Join(wd, "..", ".."), nil
	}
	return wd, nil
}

// Resolve joins a relative path onto root. Absolute paths are returned as is.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
