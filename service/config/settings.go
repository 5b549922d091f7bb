package config

import (
	"fmt"
	"path/filepath"
	"time"
)

const uploadsSubfolder = "uploads"

type settings struct {
	RuntimeEnv          string          `yaml:"runtimeEnv"          env:"RUN_TIME_ENV"`
	ModeMaxShutdownTime int             `yaml:"modeMaxShutdownTime" env:"MODE_MAX_SHUTDOWN" envDefault:"5"`
	Port                int             `yaml:"port"                env:"PORT"              envDefault:"8000"`
	StaticFolder        string          `yaml:"staticFolder"        env:"STATIC_FOLDER"     envDefault:"./static"`
	StaticURLPrefix     string          `yaml:"staticUrlPrefix"     env:"STATIC_URL_PREFIX" envDefault:"/static"`
	SettingsFolder      string          `yaml:"settingsFolder"      env:"SETTINGS_FOLDER"   envDefault:"./settings"`
	MaxUploadBytes      int64           `yaml:"maxUploadBytes"      env:"MAX_UPLOAD_BYTES"  envDefault:"536870912"`
	AnalysisTimeout     time.Duration   `yaml:"analysisTimeout"     env:"ANALYSIS_TIMEOUT"  envDefault:"0s"`
	CleanupMaxAge       time.Duration   `yaml:"cleanupMaxAge"       env:"CLEANUP_MAX_AGE"   envDefault:"1h"`
	CleanupSchedule     string          `yaml:"cleanupSchedule"     env:"CLEANUP_SCHEDULE"`
	CacheSize           int             `yaml:"cacheSize"           env:"CACHE_SIZE"        envDefault:"128"`
	CacheTTL            time.Duration   `yaml:"cacheTtl"            env:"CACHE_TTL"         envDefault:"1h"`
	LogLevel            string          `yaml:"logLevel"            env:"LOG_LEVEL"         envDefault:"info"`
	LogFormat           string          `yaml:"logFormat"           env:"LOG_FORMAT"        envDefault:"pretty"`
	LogFile             string          `yaml:"logFile"             env:"LOG_FILE"`
	DetectionsLog       string          `yaml:"detectionsLog"       env:"DETECTIONS_LOG"    envDefault:"detections.log"`
	TracingEndpoint     string          `yaml:"tracingEndpoint"     env:"TRACING_ENDPOINT"`
	Model               ModelParameters `yaml:"model"`
}

func (s *settings) validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if s.Model.InputWidth <= 0 || s.Model.InputHeight <= 0 {
		return fmt.Errorf("invalid model input size %dx%d", s.Model.InputWidth, s.Model.InputHeight)
	}
	if s.Model.InputLayout != "nhwc" && s.Model.InputLayout != "nchw" {
		return fmt.Errorf("invalid model input layout %q, expected nhwc or nchw", s.Model.InputLayout)
	}
	switch s.Model.Backend {
	case "onnx":
	case "fake":
		if s.RuntimeEnv != "dev" {
			return fmt.Errorf("model backend fake is only allowed when RUN_TIME_ENV=dev")
		}
	default:
		return fmt.Errorf("unknown model backend %q, expected onnx or fake", s.Model.Backend)
	}
	if s.Model.Workers <= 0 {
		return fmt.Errorf("model workers must be positive, got %d", s.Model.Workers)
	}
	if s.Model.MaxFrames <= 0 {
		return fmt.Errorf("max frames must be positive, got %d", s.Model.MaxFrames)
	}
	if s.CleanupMaxAge <= 0 {
		return fmt.Errorf("cleanup max age must be positive, got %s", s.CleanupMaxAge)
	}
	return nil
}

func (s *settings) GetRuntimeEnv() string               { return s.RuntimeEnv }
func (s *settings) GetModeMaxShutdownTime() int         { return s.ModeMaxShutdownTime }
func (s *settings) GetPort() int                        { return s.Port }
func (s *settings) GetStaticFolder() string             { return s.StaticFolder }
func (s *settings) GetStaticURLPrefix() string          { return s.StaticURLPrefix }
func (s *settings) GetSettingsFolder() string           { return s.SettingsFolder }
func (s *settings) GetMaxUploadBytes() int64            { return s.MaxUploadBytes }
func (s *settings) GetAnalysisTimeout() time.Duration   { return s.AnalysisTimeout }
func (s *settings) GetCleanupMaxAge() time.Duration     { return s.CleanupMaxAge }
func (s *settings) GetCleanupSchedule() string          { return s.CleanupSchedule }
func (s *settings) GetCacheSize() int                   { return s.CacheSize }
func (s *settings) GetCacheTTL() time.Duration          { return s.CacheTTL }
func (s *settings) GetLogLevel() string                 { return s.LogLevel }
func (s *settings) GetLogFormat() string                { return s.LogFormat }
func (s *settings) GetLogFile() string                  { return s.LogFile }
func (s *settings) GetDetectionsLog() string            { return s.DetectionsLog }
func (s *settings) GetTracingEndpoint() string          { return s.TracingEndpoint }
func (s *settings) GetModelParameters() ModelParameters { return s.Model }

// Uploads live under the static folder so they can be served as assets.
func (s *settings) GetUploadsFolder() string {
	return filepath.Join(s.StaticFolder, uploadsSubfolder)
}
