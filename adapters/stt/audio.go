package stt

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// loadAudio reads the whole file and, unless keep is set, removes it before
// any network call is made. The handle is closed as soon as reading is done.
func loadAudio(fsys afero.Fs, path string, keep bool, logger *zap.Logger) ([]byte, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file %s: %w", path, err)
	}

	if !keep {
		if err := fsys.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove audio file", zap.String("path", path), zap.Error(err))
		}
	}

	return data, nil
}
