package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bihari123/reelpick/config"
	"github.com/bihari123/reelpick/logger"
)

type TrimInput struct {
	FileName   string `json:"fileName" binding:"required"`
	StartTime  int64  `json:"start_time"`
	Duration   int64  `json:"duration" binding:"required"`
	OutputFile string `json:"outputFile" binding:"required"`
}

type JoinInput struct {
	Parts      []string `json:"parts" binding:"required"`
	OutputFile string   `json:"outputFile" binding:"required"`
}

type MediaService interface {
	Trim(ctx context.Context, in TrimInput) error
	Join(ctx context.Context, in JoinInput) error
}

// commandRunner is swapped out in tests; the default shells out.
type commandRunner func(ctx context.Context, bin string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, bin, args...).CombinedOutput()
}

type mediaService struct {
	uploadDir string
	run       commandRunner
}

func NewMediaService(uploadDir string) MediaService {
	return &mediaService{uploadDir: uploadDir, run: execRunner}
}

// probeDuration asks ffprobe for the container duration in seconds.
func (s *mediaService) probeDuration(ctx context.Context, path string) (float64, error) {
	out, err := s.run(ctx, config.AppConfig.Media.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(out)))
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// formatTimestamp renders whole seconds as the HH:MM:SS form ffmpeg expects.
func formatTimestamp(seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

func (s *mediaService) Trim(ctx context.Context, in TrimInput) error {
	if in.Duration <= 0 {
		return newAppError(http.StatusBadRequest, ErrMsgInvalidDuration, nil)
	}
	if in.Duration > config.AppConfig.Media.MaxTrimDuration {
		return newAppError(http.StatusBadRequest, ErrMsgDurationTooLong, nil)
	}
	if in.StartTime < 0 {
		return newAppError(http.StatusBadRequest, ErrMsgInvalidTrimRange, nil)
	}

	input := filepath.Join(s.uploadDir, filepath.Base(in.FileName))
	output := filepath.Join(s.uploadDir, filepath.Base(in.OutputFile))

	probed, err := s.probeDuration(ctx, input)
	if err != nil {
		logger.L().Errorw("video probe failed", "file", input, "err", err)
		return newAppError(http.StatusBadRequest, ErrMsgVideoInfoError, err)
	}
	if float64(in.StartTime+in.Duration) > probed {
		return newAppError(http.StatusBadRequest, ErrMsgInvalidTrimRange, nil)
	}

	out, err := s.run(ctx, config.AppConfig.Media.FFmpegPath,
		"-i", input,
		"-ss", formatTimestamp(in.StartTime),
		"-t", formatTimestamp(in.Duration),
		"-c", "copy",
		"-y", output,
	)
	if err != nil {
		logger.L().Errorw("trim failed", "file", input, "err", err, "output", strings.TrimSpace(string(out)))
		return newAppError(http.StatusBadRequest, ErrMsgTrimError, err)
	}
	return nil
}

func (s *mediaService) Join(ctx context.Context, in JoinInput) error {
	if len(in.Parts) < 2 {
		return newAppError(http.StatusBadRequest, ErrMsgJoinError, nil)
	}

	// ffmpeg's concat demuxer reads the part list from a file.
	listPath := filepath.Join(os.TempDir(), "reelpick-concat-"+uuid.New().String()+".txt")
	var list strings.Builder
	for _, part := range in.Parts {
		abs, err := filepath.Abs(filepath.Join(s.uploadDir, filepath.Base(part)))
		if err != nil {
			return newAppError(http.StatusBadRequest, ErrMsgJoinError, err)
		}
		fmt.Fprintf(&list, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return newAppError(http.StatusInternalServerError, ErrMsgJoinError, err)
	}
	defer os.Remove(listPath)

	output := filepath.Join(s.uploadDir, filepath.Base(in.OutputFile))
	out, err := s.run(ctx, config.AppConfig.Media.FFmpegPath,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", output,
	)
	if err != nil {
		logger.L().Errorw("join failed", "parts", len(in.Parts), "err", err, "output", strings.TrimSpace(string(out)))
		return newAppError(http.StatusBadRequest, ErrMsgJoinError, err)
	}
	return nil
}
