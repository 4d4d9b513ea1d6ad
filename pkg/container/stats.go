package container

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/exec"
)

// ContainerStats is a point-in-time resource snapshot of one container
type ContainerStats struct {
	CPUPercent     float64 `json:"cpuPct"`
	MemUsedBytes   uint64  `json:"memUsedBytes"`
	MemLimitBytes  uint64  `json:"memLimitBytes"`
	MemPercent     float64 `json:"memPct"`
	NetInputBytes  uint64  `json:"netIn"`
	NetOutputBytes uint64  `json:"netOut"`
	PIDs           int     `json:"pids"`
}

// statsRow mirrors one row of docker stats --format '{{json .}}'
type statsRow struct {
	CPUPerc  string `json:"CPUPerc"`
	MemUsage string `json:"MemUsage"`
	MemPerc  string `json:"MemPerc"`
	NetIO    string `json:"NetIO"`
	PIDs     string `json:"PIDs"`
}

// Stats samples resource usage of a running container
func (e *Engine) Stats(ctx context.Context, name string) (*ContainerStats, error) {
	res, err := e.runner.Run(ctx, dockerBin,
		[]string{"stats", "--no-stream", "--format", "{{json .}}", name},
		exec.Options{Timeout: statsTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to read stats of %s: %w", name, err)
	}
	return parseStats(res.Stdout)
}

func parseStats(out string) (*ContainerStats, error) {
	line := strings.TrimSpace(out)
	if line == "" {
		return nil, fmt.Errorf("empty stats output")
	}
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	var row statsRow
	if err := json.Unmarshal([]byte(line), &row); err != nil {
		return nil, fmt.Errorf("failed to parse stats row: %w", err)
	}

	stats := &ContainerStats{
		CPUPercent: parsePercent(row.CPUPerc),
		MemPercent: parsePercent(row.MemPerc),
	}
	stats.MemUsedBytes, stats.MemLimitBytes = parseQuantityPair(row.MemUsage)
	stats.NetInputBytes, stats.NetOutputBytes = parseQuantityPair(row.NetIO)
	if n, err := strconv.Atoi(strings.TrimSpace(row.PIDs)); err == nil {
		stats.PIDs = n
	}
	return stats, nil
}

func parsePercent(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseQuantityPair splits docker's "used / limit" byte quantities,
// e.g. "7.2MiB / 15.57GiB" or "1.2kB / 648B"
func parseQuantityPair(s string) (uint64, uint64) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	a, _ := humanize.ParseBytes(strings.TrimSpace(parts[0]))
	b, _ := humanize.ParseBytes(strings.TrimSpace(parts[1]))
	return a, b
}
