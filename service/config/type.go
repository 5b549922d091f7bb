package config

import "time"

type IService interface {
	GetRuntimeEnv() string
	GetModeMaxShutdownTime() int
	GetPort() int
	GetStaticFolder() string
	GetStaticURLPrefix() string
	GetUploadsFolder() string
	GetSettingsFolder() string
	GetMaxUploadBytes() int64
	GetAnalysisTimeout() time.Duration
	GetCleanupMaxAge() time.Duration
	GetCleanupSchedule() string
	GetCacheSize() int
	GetCacheTTL() time.Duration
	GetLogLevel() string
	GetLogFormat() string
	GetLogFile() string
	GetDetectionsLog() string
	GetTracingEndpoint() string
	GetModelParameters() ModelParameters
}

type ModelParameters struct {
	Backend     string `yaml:"backend"     env:"MODEL_BACKEND"      envDefault:"onnx"`
	Path        string `yaml:"path"        env:"MODEL_PATH"         envDefault:"./models/deepfake_model.onnx"`
	InputWidth  int    `yaml:"inputWidth"  env:"MODEL_INPUT_WIDTH"  envDefault:"299"`
	InputHeight int    `yaml:"inputHeight" env:"MODEL_INPUT_HEIGHT" envDefault:"299"`
	InputLayout string `yaml:"inputLayout" env:"MODEL_INPUT_LAYOUT" envDefault:"nhwc"`
	Workers     int    `yaml:"workers"     env:"MODEL_WORKERS"      envDefault:"1"`
	MaxFrames   int    `yaml:"maxFrames"   env:"MAX_FRAMES"         envDefault:"100"`
}
