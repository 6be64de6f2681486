package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bryanwahyu/chromaleap/internal/application/upload"
)

// fileFromPath turns a local path into an upload candidate. The MIME type is
// sniffed from content, not taken from the extension.
func fileFromPath(path string) (upload.File, error) {
	path = strings.TrimSpace(path)
	info, err := os.Stat(path)
	if err != nil {
		return upload.File{}, err
	}
	if info.IsDir() {
		return upload.File{}, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return upload.File{}, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return upload.File{
		Name:        filepath.Base(path),
		ContentType: mt.String(),
		Size:        info.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// filesFromPaths collects every readable path; unreadable ones are reported
// and skipped so a drop with one bad entry still works.
func filesFromPaths(paths []string, warn func(string, error)) []upload.File {
	out := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		f, err := fileFromPath(p)
		if err != nil {
			if warn != nil {
				warn(p, err)
			}
			continue
		}
		out = append(out, f)
	}
	return out
}
