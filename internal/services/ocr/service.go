package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBinary is the tesseract executable resolved from PATH when the
// config does not name one.
const DefaultBinary = "tesseract"

// Config captures the runtime settings for OCR invocations.
type Config struct {
	Binary         string
	Languages      string
	TimeoutSeconds int
}

// Service shells out to tesseract for image-based documents.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates an OCR service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Available reports whether the configured binary can be resolved. A missing
// binary downgrades OCR to unavailable rather than failing daemon startup.
func (s *Service) Available() bool {
	if s == nil {
		return false
	}
	_, err := exec.LookPath(s.cfg.Binary)
	return err == nil
}

// Recognize runs OCR over an image or scanned document and returns the
// recognized text. workDir holds the tesseract output file.
func (s *Service) Recognize(ctx context.Context, source, workDir string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("ocr: source path required")
	}
	if workDir == "" {
		workDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("ocr: ensure work dir: %w", err)
	}

	// Tesseract appends .txt to the output base itself.
	outputBase := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))+".ocr")
	args := []string{source, outputBase}
	if lang := strings.TrimSpace(s.cfg.Languages); lang != "" {
		args = append(args, "-l", lang)
	}

	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	outputPath := outputBase + ".txt"
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return "", fmt.Errorf("ocr: read output: %w", err)
	}
	_ = os.Remove(outputPath)
	return strings.TrimSpace(string(data)), nil
}

// run executes the binary under the configured timeout so a hung tesseract
// cannot stall the sweep.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
