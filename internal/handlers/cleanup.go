package handlers

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// FileCleanupService removes cached exports older than maxAge.
type FileCleanupService struct {
	dirs     []string
	maxAge   time.Duration
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewFileCleanupService(maxAge time.Duration, dirs ...string) *FileCleanupService {
	return &FileCleanupService{
		dirs:     dirs,
		maxAge:   maxAge,
		interval: time.Hour,
		done:     make(chan bool),
	}
}

func (fcs *FileCleanupService) Start() {
	fcs.ticker = time.NewTicker(fcs.interval)
	go func() {
		for {
			select {
			case <-fcs.done:
				return
			case <-fcs.ticker.C:
				fcs.cleanupOldFiles()
			}
		}
	}()
	log.Info().Strs("dirs", fcs.dirs).Dur("max_age", fcs.maxAge).Msg("File cleanup service started")
}

func (fcs *FileCleanupService) Stop() {
	if fcs.ticker != nil {
		fcs.ticker.Stop()
	}
	fcs.done <- true
	log.Info().Msg("File cleanup service stopped")
}

func (fcs *FileCleanupService) cleanupOldFiles() {
	for _, dir := range fcs.dirs {
		fcs.cleanupDirectory(dir)
	}
}

func (fcs *FileCleanupService) cleanupDirectory(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && time.Since(info.ModTime()) > fcs.maxAge {
			log.Debug().Str("path", path).Msg("Cleaning up old file")
			return os.Remove(path)
		}

		return nil
	})

	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("Error during cleanup")
	}
}
