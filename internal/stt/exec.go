package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/tobysim/radiation/internal/audio"
)

const filePlaceholder = "{file}"

// Exec runs a local recognizer command on a temporary WAV file. The
// command prints the transcript on stdout, either as plain text or as a
// JSON object with a "text" field.
type Exec struct {
	args    []string
	timeout time.Duration
}

// NewExec parses command with shell quoting rules.
func NewExec(command string, timeout time.Duration) (*Exec, error) {
	args, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("stt command is empty")
	}
	return &Exec{args: args, timeout: timeout}, nil
}

// Transcribe writes clip to a temporary file and runs the command on it.
func (e *Exec) Transcribe(ctx context.Context, clip audio.Clip) (string, error) {
	file, err := os.CreateTemp("", "radiation_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name()) //nolint:errcheck

	if err := audio.WriteWAV(file, clip); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close wav: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	argv := e.argv(file.Name())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %w: %s", ErrRequestFailed, err, strings.TrimSpace(stderr.String()))
	}

	text := parseOutput(stdout.Bytes())
	if text == "" {
		return "", ErrNotUnderstood
	}
	return text, nil
}

func (e *Exec) argv(path string) []string {
	out := make([]string, 0, len(e.args)+1)
	replaced := false
	for _, a := range e.args {
		if strings.Contains(a, filePlaceholder) {
			a = strings.ReplaceAll(a, filePlaceholder, path)
			replaced = true
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, path)
	}
	return out
}

func parseOutput(out []byte) string {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var resp struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &resp); err == nil {
			return strings.TrimSpace(resp.Text)
		}
	}
	return string(trimmed)
}
