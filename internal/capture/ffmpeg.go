package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/franz/songbook/internal/util"
)

// FFmpegRecorder captures from the default input device by driving an
// ffmpeg process. Stop interrupts the process, waits for the container
// to be finalized and probes the result for its duration.
type FFmpegRecorder struct {
	device string // ffmpeg input spec, e.g. "default" for alsa/pulse
	format string // ffmpeg input format, e.g. "pulse", "alsa", "avfoundation"
	cmd    *exec.Cmd
	path   string
	start  time.Time
}

// NewFFmpegRecorder creates a recorder using the given ffmpeg input
// format and device
func NewFFmpegRecorder(format, device string) *FFmpegRecorder {
	return &FFmpegRecorder{format: format, device: device}
}

// Start spawns ffmpeg writing to a transient wav file
func (r *FFmpegRecorder) Start(ctx context.Context) error {
	if r.cmd != nil {
		return fmt.Errorf("recorder already started: %w", util.ErrInvalidState)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	r.path = filepath.Join(os.TempDir(), fmt.Sprintf("songbook-rec-%d.wav", time.Now().UnixNano()))

	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", r.format,
		"-i", r.device,
		"-ac", "1",
		"-y", r.path,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	r.cmd = cmd
	r.start = time.Now()
	return nil
}

// Stop interrupts ffmpeg and returns the finalized recording
func (r *FFmpegRecorder) Stop(ctx context.Context) (*Recording, error) {
	if r.cmd == nil {
		return nil, fmt.Errorf("recorder not started: %w", util.ErrInvalidState)
	}

	// SIGINT lets ffmpeg finalize the output file
	if err := r.cmd.Process.Signal(syscall.SIGINT); err != nil {
		r.cmd.Process.Kill()
	}
	r.cmd.Wait()
	r.cmd = nil

	if _, err := os.Stat(r.path); err != nil {
		return nil, fmt.Errorf("recording output missing: %w", err)
	}

	duration := probeDuration(r.path)
	if duration == 0 {
		duration = int(math.Round(time.Since(r.start).Seconds()))
	}

	return &Recording{Path: r.path, Duration: duration}, nil
}

// probeDuration asks ffprobe for the duration in whole seconds, 0 if
// unavailable
func probeDuration(path string) int {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0
	}

	out, err := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	).Output()
	if err != nil {
		return 0
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(seconds))
}

// FFplayPlayer previews audio files by driving an ffplay process.
// Pause and resume map to stopping and continuing the process; seeking
// restarts the process at the requested offset, since ffplay takes the
// start position only on its command line.
type FFplayPlayer struct {
	cmd      *exec.Cmd
	path     string
	base     time.Duration // offset the process was started at
	started  time.Time
	pausedAt time.Time
	paused   time.Duration // accumulated pause time
}

// NewFFplayPlayer creates a player backed by ffplay
func NewFFplayPlayer() *FFplayPlayer {
	return &FFplayPlayer{}
}

// Play starts playback of the file at path
func (p *FFplayPlayer) Play(ctx context.Context, path string) error {
	return p.playFrom(path, 0)
}

func (p *FFplayPlayer) playFrom(path string, offset time.Duration) error {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return fmt.Errorf("ffplay not found in PATH: %w", err)
	}

	p.stopCurrent()

	args := []string{"-hide_banner", "-loglevel", "error", "-nodisp", "-autoexit"}
	if offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", offset.Seconds()))
	}
	args = append(args, path)

	cmd := exec.Command("ffplay", args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffplay: %w", err)
	}

	p.cmd = cmd
	p.path = path
	p.base = offset
	p.started = time.Now()
	p.pausedAt = time.Time{}
	p.paused = 0
	return nil
}

// Pause suspends playback
func (p *FFplayPlayer) Pause(ctx context.Context) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return fmt.Errorf("nothing playing: %w", util.ErrInvalidState)
	}
	if err := p.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return err
	}
	p.pausedAt = time.Now()
	return nil
}

// Resume continues suspended playback
func (p *FFplayPlayer) Resume(ctx context.Context) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return fmt.Errorf("nothing playing: %w", util.ErrInvalidState)
	}
	if err := p.cmd.Process.Signal(syscall.SIGCONT); err != nil {
		return err
	}
	if !p.pausedAt.IsZero() {
		p.paused += time.Since(p.pausedAt)
		p.pausedAt = time.Time{}
	}
	return nil
}

// Seek restarts playback at the given offset
func (p *FFplayPlayer) Seek(ctx context.Context, offset time.Duration) error {
	if p.path == "" {
		return fmt.Errorf("nothing playing: %w", util.ErrInvalidState)
	}
	if offset < 0 {
		offset = 0
	}
	return p.playFrom(p.path, offset)
}

// Position returns the playback position, estimated from wall time
func (p *FFplayPlayer) Position(ctx context.Context) (time.Duration, error) {
	if p.cmd == nil {
		return 0, fmt.Errorf("nothing playing: %w", util.ErrInvalidState)
	}

	elapsed := time.Since(p.started) - p.paused
	if !p.pausedAt.IsZero() {
		elapsed -= time.Since(p.pausedAt)
	}
	return p.base + elapsed, nil
}

// Stop ends playback
func (p *FFplayPlayer) Stop(ctx context.Context) error {
	p.stopCurrent()
	p.path = ""
	return nil
}

func (p *FFplayPlayer) stopCurrent() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}
	p.cmd = nil
}

// DesktopPermissions grants microphone access unconditionally; on a
// desktop the OS mediates device access, so there is nothing to ask
type DesktopPermissions struct{}

// RequestMicrophone implements Permissions
func (DesktopPermissions) RequestMicrophone(ctx context.Context) (bool, error) {
	return true, nil
}
