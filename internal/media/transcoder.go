package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"

	"github.com/xfrr/goffmpeg/transcoder"

	"clipforge/internal/config"
	"clipforge/internal/domain"
)

// Transcoder оборачивает обработку видео внешним движком: обрезка одного
// файла и нормализующая склейка нескольких. Обе операции асинхронны,
// вызывающий поток приостанавливается ровно в одной точке ожидания.
type Transcoder struct {
	cfg config.MediaConfig
}

func NewTranscoder(cfg config.MediaConfig) (*Transcoder, error) {
	// Проверяем наличие ffmpeg
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	return &Transcoder{cfg: cfg}, nil
}

// Trim вырезает отрезок [start, start+duration) из inputPath и
// перекодирует его в целевой формат по пути outputPath.
func (t *Transcoder) Trim(ctx context.Context, inputPath string, start, duration float64, outputPath string) error {
	log.Printf("[Transcoder] Trimming %s: start=%.3f duration=%.3f", inputPath, start, duration)

	trans := new(transcoder.Transcoder)

	if err := trans.Initialize(inputPath, outputPath); err != nil {
		return &domain.TransformError{Op: "trim", Err: err}
	}

	trans.MediaFile().SetSeekTime(formatSeconds(start))
	trans.MediaFile().SetDuration(formatSeconds(duration))
	trans.MediaFile().SetVideoCodec(t.cfg.VideoCodec)
	trans.MediaFile().SetAudioCodec(t.cfg.AudioCodec)
	trans.MediaFile().SetVideoBitRate(t.cfg.VideoBitrate)
	trans.MediaFile().SetFrameRate(t.cfg.FrameRate)
	trans.MediaFile().SetAudioRate(t.cfg.SampleRate)
	trans.MediaFile().SetAudioChannels(t.cfg.AudioChannels)

	done := trans.Run(false)
	select {
	case err := <-done:
		if err != nil {
			return &domain.TransformError{Op: "trim", Err: err}
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Printf("[Transcoder] Trim completed: %s", outputPath)
	return nil
}

// ConcatNormalized приводит каждый вход к общему холсту и аудиоформату,
// затем склеивает их в порядке inputPaths. Порядок входов — часть
// контракта: выход обязан повторять порядок запроса.
func (t *Transcoder) ConcatNormalized(ctx context.Context, inputPaths []string, width, height int, outputPath string) error {
	log.Printf("[Transcoder] Concatenating %d inputs into %s", len(inputPaths), outputPath)

	args := buildConcatArgs(t.cfg, inputPaths, width, height, outputPath)
	cmd := exec.CommandContext(ctx, t.cfg.FFmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return &domain.TransformError{Op: "concat", Err: err}
	}
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return &domain.TransformError{Op: "concat", Err: err, Stderr: stderr.String()}
		}
	case <-ctx.Done():
		<-done
		return ctx.Err()
	}

	log.Printf("[Transcoder] Concat completed: %s", outputPath)
	return nil
}

// buildConcatArgs собирает аргументы ffmpeg для нормализующей склейки:
// scale с сохранением пропорций, pad до холста, setsar, единый fps и
// частота дискретизации, затем фильтр concat по парам [vN][aN].
func buildConcatArgs(cfg config.MediaConfig, inputPaths []string, width, height int, outputPath string) []string {
	args := []string{"-y"}
	for _, input := range inputPaths {
		args = append(args, "-i", input)
	}

	var filter strings.Builder
	for i := range inputPaths {
		fmt.Fprintf(&filter,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d[v%d];",
			i, width, height, width, height, cfg.FrameRate, i)
		fmt.Fprintf(&filter, "[%d:a]aresample=%d[a%d];", i, cfg.SampleRate, i)
	}
	for i := range inputPaths {
		fmt.Fprintf(&filter, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=1[outv][outa]", len(inputPaths))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", cfg.VideoCodec,
		"-b:v", cfg.VideoBitrate,
		"-r", strconv.Itoa(cfg.FrameRate),
		"-c:a", cfg.AudioCodec,
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-ac", strconv.Itoa(cfg.AudioChannels),
		outputPath,
	)

	return args
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
