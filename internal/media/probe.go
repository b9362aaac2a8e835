package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"clipforge/internal/config"
	"clipforge/internal/domain"
)

// ProbeResult — метаданные, прочитанные из файла.
type ProbeResult struct {
	Duration float64 // секунды
}

// Prober оборачивает ffprobe. Путь к бинарю задаётся конфигурацией
// при создании, процесс-глобального состояния нет.
type Prober struct {
	ffprobePath string
}

func NewProber(cfg config.MediaConfig) *Prober {
	return &Prober{ffprobePath: cfg.FFprobePath}
}

// Probe возвращает длительность видеофайла.
func (p *Prober) Probe(ctx context.Context, path string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, &domain.ProbeError{
			Path: path,
			Err:  fmt.Errorf("%w (stderr: %s)", err, stderr.String()),
		}
	}

	duration, err := parseDuration(string(output))
	if err != nil {
		return ProbeResult{}, &domain.ProbeError{Path: path, Err: err}
	}

	return ProbeResult{Duration: duration}, nil
}

func parseDuration(output string) (float64, error) {
	raw := strings.TrimSpace(output)
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", raw, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", duration)
	}
	return duration, nil
}
