package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// NewJanitor removes rendered files older than retention from outputDir,
// once immediately and then every interval.
func NewJanitor(outputDir string, retention, interval time.Duration) (gocron.Scheduler, error) {

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if _, err := sweep(outputDir, retention); err != nil {
		return nil, fmt.Errorf("initial run of job failed: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			removed, err := sweep(outputDir, retention)
			if err != nil {
				log.Printf("Output sweep failed: %v", err)
				return
			}
			if removed > 0 {
				log.Printf("Removed %d expired renders from %s", removed, outputDir)
			}
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}

func sweep(outputDir string, retention time.Duration) (int, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, err
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(outputDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
