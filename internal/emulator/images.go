package emulator

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// ListImages returns the image files in dir, skipping target and
// temporary files.
func ListImages(dir, target string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || name == target || strings.HasPrefix(name, ".") {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(name))] {
			names = append(names, name)
		}
	}
	return names, nil
}

// RotateImage copies a random image from dir over target. The copy goes
// through a temp file and a rename so /files/<target> always serves a
// complete image.
func RotateImage(dir, target string, pick func(n int) int) (string, error) {
	names, err := ListImages(dir, target)
	if err != nil {
		return "", fmt.Errorf("list images: %w", err)
	}
	if len(names) == 0 {
		return "", nil
	}
	if pick == nil {
		pick = rand.IntN
	}
	chosen := names[pick(len(names))]

	if err := copyAtomic(filepath.Join(dir, chosen), filepath.Join(dir, target)); err != nil {
		return "", err
	}
	return chosen, nil
}

func copyAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".rotate-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	return nil
}
