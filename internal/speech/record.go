package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// CommandSource records from the microphone with an external program. The
// arguments may use {file}, {seconds} and {rate} placeholders.
type CommandSource struct {
	Command    string
	Args       []string
	Duration   time.Duration
	SampleRate int
	TempDir    string
}

// DefaultCommandSource records with ALSA's arecord.
func DefaultCommandSource() CommandSource {
	return CommandSource{
		Command:    "arecord",
		Args:       []string{"-q", "-f", "S16_LE", "-c", "1", "-r", "{rate}", "-d", "{seconds}", "{file}"},
		Duration:   5 * time.Second,
		SampleRate: 16000,
	}
}

// Capture records into a temporary WAV file.
func (s CommandSource) Capture(ctx context.Context) (string, bool, error) {
	if s.Command == "" {
		return "", false, fmt.Errorf("%w: no recording command configured", ErrUnavailable)
	}
	if _, err := exec.LookPath(s.Command); err != nil {
		return "", false, fmt.Errorf("%w: %s not found", ErrUnavailable, s.Command)
	}

	f, err := os.CreateTemp(s.TempDir, "shakes-listen-*.wav")
	if err != nil {
		return "", false, fmt.Errorf("failed to create recording file: %w", err)
	}
	path := f.Name()
	_ = f.Close()

	seconds := int(s.Duration.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	replacer := strings.NewReplacer(
		"{file}", path,
		"{seconds}", strconv.Itoa(seconds),
		"{rate}", strconv.Itoa(s.SampleRate),
	)
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = replacer.Replace(a)
	}

	// Leave headroom over the recording length for device start-up.
	ctx, cancel := context.WithTimeout(ctx, s.Duration+10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug("Recording", "command", s.Command, "seconds", seconds, "file", path)
	if err := cmd.Run(); err != nil {
		_ = os.Remove(path)
		if ctx.Err() != nil {
			return "", false, fmt.Errorf("recording cancelled: %w", ctx.Err())
		}
		return "", false, fmt.Errorf("%s failed: %w: %s", s.Command, err, strings.TrimSpace(stderr.String()))
	}
	return path, true, nil
}
