package boost

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
)

const logSweepRemoved = "Retention sweep removed %d expired artifact(s) from %s"

// SweepArtifacts removes audio artifacts in dir older than maxAge and returns
// the number removed. Only .mp3 files are considered; anything else in the
// directory is left alone.
func SweepArtifacts(dir string, maxAge time.Duration, log *logger.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact directory %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		removeErr := os.Remove(filepath.Join(dir, entry.Name()))
		if removeErr != nil {
			log.Warn("Failed to remove expired artifact %s: %v", entry.Name(), removeErr)

			continue
		}

		removed++
	}

	if removed > 0 {
		log.Info(logSweepRemoved, removed, dir)
	}

	return removed, nil
}
