package smoke

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Enumerate lists every regular file under root. Directories are visited in
// lexical order at each level (filepath.WalkDir order), so the result is
// stable for an unchanged tree. Symlinks and other non-regular entries are
// skipped.
func Enumerate(root string) ([]string, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test root is not a directory: %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
