package traffic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/exec"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
)

// upstreamTemplate is the exact shape of the live upstream file. nginx
// server blocks proxy_pass to versiongate_backend, so rewriting this
// one file and reloading moves all traffic.
const upstreamTemplate = "upstream versiongate_backend {\n  server 127.0.0.1:%d;\n}\n"

const reloadTimeout = 30 * time.Second

var upstreamPortRe = regexp.MustCompile(`server 127\.0\.0\.1:(\d+);`)

// Switcher atomically repoints the reverse proxy at a host port
type Switcher struct {
	runner     exec.Commander
	configPath string
	logger     zerolog.Logger
}

func NewSwitcher(runner exec.Commander, configPath string) *Switcher {
	return &Switcher{
		runner:     runner,
		configPath: configPath,
		logger:     log.WithComponent("traffic"),
	}
}

// SwitchTo renders the upstream file for port and makes it live:
// write to a temp file, back up the current config, rename over it,
// reload the proxy. A failed reload restores the backup so traffic
// keeps flowing to the old port.
func (s *Switcher) SwitchTo(ctx context.Context, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid upstream port %d", port)
	}

	content := fmt.Sprintf(upstreamTemplate, port)
	if !strings.Contains(content, strconv.Itoa(port)) {
		return fmt.Errorf("rendered upstream config is missing port %d", port)
	}

	if err := os.MkdirAll(filepath.Dir(s.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmpPath := s.configPath + ".tmp"
	bakPath := s.configPath + ".bak"

	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write staged config: %w", err)
	}

	hasBackup := false
	if existing, err := os.ReadFile(s.configPath); err == nil {
		if err := os.WriteFile(bakPath, existing, 0o644); err != nil {
			return fmt.Errorf("failed to back up config: %w", err)
		}
		hasBackup = true
	}

	// Same directory, so the rename is atomic
	if err := os.Rename(tmpPath, s.configPath); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}

	if _, err := s.runner.Run(ctx, "nginx", []string{"-s", "reload"}, exec.Options{Timeout: reloadTimeout}); err != nil {
		if hasBackup {
			if data, readErr := os.ReadFile(bakPath); readErr == nil {
				if restoreErr := os.WriteFile(s.configPath, data, 0o644); restoreErr != nil {
					s.logger.Error().Err(restoreErr).Msg("Failed to restore config backup after reload failure")
				}
			}
		}
		return fmt.Errorf("failed to reload proxy: %w", err)
	}

	s.logger.Info().Int("port", port).Str("config", s.configPath).Msg("Traffic switched")
	return nil
}

// Current returns the port the live config routes to, 0 when no config
// exists or it holds no upstream
func (s *Switcher) Current() int {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return 0
	}
	m := upstreamPortRe.FindSubmatch(data)
	if m == nil {
		return 0
	}
	port, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0
	}
	return port
}
