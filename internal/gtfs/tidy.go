package gtfs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Niyant4280/bus-niyojak/internal/logging"
)

// tidyFlags selects the gtfstidy cleanup passes run before import. See gtfstidy -h.
const tidyFlags = "-OscRCSmeD"

// findGTFSTidy looks next to the executable, then in ./bin and ../bin, then on PATH.
func findGTFSTidy() (string, error) {
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		for _, dir := range []string{exeDir, filepath.Join(exeDir, "bin"), filepath.Join(exeDir, "..", "bin")} {
			for _, name := range []string{"gtfstidy", "gtfstidy.exe"} {
				candidate := filepath.Join(dir, name)
				if _, err := os.Stat(candidate); err == nil {
					return candidate, nil
				}
			}
		}
	}

	path, err := exec.LookPath("gtfstidy")
	if err != nil {
		return "", fmt.Errorf("gtfstidy not found in PATH or local directories: %w", err)
	}
	return path, nil
}

// tidyFeed runs a GTFS zip through gtfstidy and returns the cleaned archive.
func tidyFeed(ctx context.Context, feed []byte, logger *slog.Logger) ([]byte, error) {
	gtfstidyPath, err := findGTFSTidy()
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "gtfs-tidy-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logging.LogError(logger, "Failed to clean up temp directory", err,
				slog.String("temp_dir", tempDir))
		}
	}()

	inputPath := filepath.Join(tempDir, "feed.zip")
	if err := os.WriteFile(inputPath, feed, 0600); err != nil {
		return nil, fmt.Errorf("failed to write GTFS zip: %w", err)
	}
	outputPath := filepath.Join(tempDir, "feed_tidied.zip")

	cmd := exec.CommandContext(ctx, gtfstidyPath, tidyFlags, "-o", outputPath, inputPath)
	cmd.Dir = tempDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.LogError(logger, "gtfstidy command failed", err,
			slog.String("stderr", stderr.String()))
		return nil, fmt.Errorf("gtfstidy failed: %w", err)
	}

	tidied, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tidied GTFS zip: %w", err)
	}

	logging.LogOperation(logger, "gtfs_feed_tidied",
		slog.Int("input_size_bytes", len(feed)),
		slog.Int("output_size_bytes", len(tidied)))

	return tidied, nil
}
