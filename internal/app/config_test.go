package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "minimal", cfg: Config{GraphPath: "scene.hcl"}},
		{name: "animated", cfg: Config{GraphPath: "scene.hcl", FPS: 60, Frames: 120, HealthcheckPort: 8080}},
		{name: "missing path", cfg: Config{}, wantErr: "GraphPath is a required"},
		{name: "negative fps", cfg: Config{GraphPath: "x", FPS: -1}, wantErr: "FPS cannot be negative"},
		{name: "negative frames", cfg: Config{GraphPath: "x", FPS: 1, Frames: -1}, wantErr: "Frames cannot be negative"},
		{name: "frames without fps", cfg: Config{GraphPath: "x", Frames: 10}, wantErr: "Frames requires a positive FPS"},
		{name: "negative depth", cfg: Config{GraphPath: "x", MaxDepth: -5}, wantErr: "MaxDepth cannot be negative"},
		{name: "bad port", cfg: Config{GraphPath: "x", HealthcheckPort: 70000}, wantErr: "HealthcheckPort out of range"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *cfg)
		})
	}
}
