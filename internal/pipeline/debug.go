package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rbright/parla/internal/session"
)

// dump writes the unit's WAV under DumpDir as <session>-<index>.wav.
func (w *Worker) dump(unit session.Unit) {
	if w.deps.DumpDir == "" || len(unit.WAV) == 0 {
		return
	}
	path, err := writeDebugFile(w.deps.DumpDir, fmt.Sprintf("%s-%02d.wav", unit.SessionID, unit.SegmentIndex), unit.WAV)
	if err != nil {
		w.logger.Warn("unable to write debug audio dump", "error", err)
		return
	}
	w.logger.Debug("debug audio written", "path", path)
}

func writeDebugFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write debug file %q: %w", path, err)
	}
	return path, nil
}
