package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// FPS is the frame rate of extern.frame. 0 evaluates the scene once.
	FPS int
	// Frames stops the run after that many frames. 0 runs until cancelled.
	Frames   int
	MaxDepth int

	// PublishURL is the socket.io preview server. Empty logs updates instead.
	PublishURL       string
	PublishNamespace string
	PublishEvent     string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.FPS < 0 {
		return nil, fmt.Errorf("FPS cannot be negative, got %d", cfg.FPS)
	}
	if cfg.Frames < 0 {
		return nil, fmt.Errorf("Frames cannot be negative, got %d", cfg.Frames)
	}
	if cfg.Frames > 0 && cfg.FPS == 0 {
		return nil, errors.New("Frames requires a positive FPS")
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("MaxDepth cannot be negative, got %d", cfg.MaxDepth)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("HealthcheckPort out of range: %d", cfg.HealthcheckPort)
	}

	return &cfg, nil
}
