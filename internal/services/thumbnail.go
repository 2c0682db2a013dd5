package services

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Thumbnailer captures a single preview frame from a video file.
type Thumbnailer interface {
	CaptureFrame(ctx context.Context, videoPath, outPath string) error
}

// FFmpegThumbnailer shells out to ffprobe/ffmpeg to decode one frame at 10%
// of the video's duration
type FFmpegThumbnailer struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegThumbnailer creates a new FFmpegThumbnailer
func NewFFmpegThumbnailer(ffmpegPath, ffprobePath string) *FFmpegThumbnailer {
	return &FFmpegThumbnailer{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// CaptureFrame writes a jpeg frame from videoPath to outPath
func (t *FFmpegThumbnailer) CaptureFrame(ctx context.Context, videoPath, outPath string) error {
	duration, err := t.probeDuration(ctx, videoPath)
	if err != nil {
		return err
	}

	offset := duration * 0.10
	cmdArgs := []string{
		"-ss", fmt.Sprintf("%.3f", offset),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		"-y", outPath,
	}
	cmd := exec.CommandContext(ctx, t.ffmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg frame capture failed: %v, output: %s", err, string(output))
	}
	return nil
}

func (t *FFmpegThumbnailer) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmdArgs := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	}
	cmd := exec.CommandContext(ctx, t.ffprobePath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v, output: %s", err, string(output))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse video duration %q: %w", strings.TrimSpace(string(output)), err)
	}
	return duration, nil
}
