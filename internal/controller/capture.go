package controller

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// SaveFrame writes frame into dir as <timestamp>.<ext>.
func SaveFrame(dir string, frame []byte, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}

	ext := ".jpg"
	switch http.DetectContentType(frame) {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	}

	path := filepath.Join(dir, at.Format("2006-01-02_15-04-05")+ext)
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		return "", fmt.Errorf("save frame: %w", err)
	}
	return path, nil
}
