package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// NewEnv reads the configuration from environment variables. When
// CONFIG_FILE points to a YAML file, the keys it sets override the
// environment.
func NewEnv() (IService, error) {
	return newFromEnvironment(env.ToMap(os.Environ()))
}

func newFromEnvironment(environ map[string]string) (IService, error) {
	s := &settings{}
	if err := env.ParseWithOptions(s, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if file := environ["CONFIG_FILE"]; file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", file, err)
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}
