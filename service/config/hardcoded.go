package config

import (
	"github.com/caarlos0/env/v11"
)

// NewHardCoded returns the built-in defaults, ignoring the process environment.
func NewHardCoded() IService {
	s := &settings{}
	// Parsing against an empty environment only applies the envDefault tags.
	if err := env.ParseWithOptions(s, env.Options{Environment: map[string]string{}}); err != nil {
		panic(err)
	}
	return s
}
