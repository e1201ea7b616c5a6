// Package fsutil provides file system utility functions.
package fsutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/texpen/internal/ctxlog"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ResolvePath returns path itself when it is a file with the given extension,
// or every such file below it when it is a directory. A missing path returns
// an error satisfying os.IsNotExist.
func ResolvePath(ctx context.Context, path, extension string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		logger.Debug("Path is a directory, scanning for files.", "directory", path, "extension", extension)
		return FindFilesByExtension(path, extension)
	}

	if filepath.Ext(path) != extension {
		return nil, fmt.Errorf("specified file is not a %s file: %s", extension, path)
	}
	return []string{path}, nil
}
