package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandEngine runs a local whisper executable and reads the txt output.
type CommandEngine struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewCommandEngine creates an engine for the whisper CLI at binary.
func NewCommandEngine(binary string) *CommandEngine {
	return &CommandEngine{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *CommandEngine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) *CommandEngine {
	e.commandRunner = runner
	return e
}

func (e *CommandEngine) Name() string {
	return "command"
}

func (e *CommandEngine) Recognize(ctx context.Context, audioPath string, req Request) (string, error) {
	outDir, err := os.MkdirTemp("", "subgen-whisper-*")
	if err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	defer os.RemoveAll(outDir) //nolint:errcheck

	if err := e.run(ctx, e.binary, e.buildArgs(audioPath, outDir, req)...); err != nil {
		return "", fmt.Errorf("%s: %w", e.binary, err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outDir, stem+".txt")) //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (e *CommandEngine) buildArgs(audioPath, outDir string, req Request) []string {
	args := []string{
		audioPath,
		"--model", req.Model,
		"--output_format", "txt",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if req.Language != "" && req.Language != "auto" {
		args = append(args, "--language", req.Language)
	}
	return args
}

func (e *CommandEngine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
