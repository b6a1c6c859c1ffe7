package engines

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/tobysim/radiation/internal/tts"
)

// splitCommand parses a configured command line with shell quoting rules.
func splitCommand(line string) ([]string, error) {
	args, err := shellwords.NewParser().Parse(line)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, exec.ErrNotFound
	}
	return args, nil
}

// runCommand runs argv with stdin and returns stdout. On cancellation the
// process gets an interrupt and a short grace period before it is killed.
func runCommand(ctx context.Context, engine, op string, argv []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.Stdin = stdin
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &tts.EngineError{Engine: engine, Op: op, Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, &tts.EngineError{Engine: engine, Op: op, Stderr: stderr.String(), Err: err}
		}
	case <-ctx.Done():
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			_ = cmd.Process.Kill()
			<-done
		}
		return nil, &tts.EngineError{Engine: engine, Op: op, Err: ctx.Err()}
	}

	if stdout.Len() == 0 {
		return nil, &tts.EngineError{Engine: engine, Op: op, Stderr: stderr.String(), Err: errNoOutput}
	}
	return stdout.Bytes(), nil
}
