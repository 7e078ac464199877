package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		want     *app.Config
		wantExit bool
		wantCode int
		wantMsg  string
	}{
		{
			name: "positional path with defaults",
			args: []string{"scene.hcl"},
			want: &app.Config{GraphPath: "scene.hcl", LogFormat: "text", LogLevel: "info", PublishNamespace: "/", PublishEvent: "frame"},
		},
		{
			name: "long flag wins over shorthand and positional",
			args: []string{"--graph", "a.hcl", "-g", "b.hcl", "c.hcl"},
			want: &app.Config{GraphPath: "a.hcl", LogFormat: "text", LogLevel: "info", PublishNamespace: "/", PublishEvent: "frame"},
		},
		{
			name: "animation and publishing",
			args: []string{
				"-g", "scenes", "--fps", "30", "--frames", "90", "--max-depth", "500",
				"--publish-url", "http://localhost:3000", "--publish-namespace", "/preview", "--publish-event", "tick",
				"--healthcheck-port", "8081", "--log-format", "JSON", "--log-level", "DEBUG",
			},
			want: &app.Config{
				GraphPath: "scenes", FPS: 30, Frames: 90, MaxDepth: 500,
				PublishURL: "http://localhost:3000", PublishNamespace: "/preview", PublishEvent: "tick",
				HealthcheckPort: 8081, LogFormat: "json", LogLevel: "debug",
			},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no path prints usage", args: nil, wantExit: true},
		{name: "unknown flag", args: []string{"--nope"}, wantCode: 2, wantMsg: "flag provided but not defined: -nope"},
		{name: "bad log format", args: []string{"--log-format", "xml", "a.hcl"}, wantCode: 2, wantMsg: "invalid log-format"},
		{name: "bad log level", args: []string{"--log-level", "loud", "a.hcl"}, wantCode: 2, wantMsg: "invalid log-level"},
		{name: "frames without fps", args: []string{"--frames", "3", "a.hcl"}, wantCode: 2, wantMsg: "Frames requires a positive FPS"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out)

			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Nil(t, cfg)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.want, cfg)
		})
	}
}
