// Package examples embeds a small light-element network with a matching
// zone, run config, response file and scenario.
package examples

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed net.yaml zone.yaml run.yaml run.rsp scenario.yaml
var files embed.FS

// Names lists the embedded files in the order they are written.
func Names() []string {
	return []string{"net.yaml", "zone.yaml", "run.yaml", "run.rsp", "scenario.yaml"}
}

func Read(name string) ([]byte, error) {
	return fs.ReadFile(files, name)
}

// Write copies the example files into dir. Existing files are left alone
// unless overwrite is set.
func Write(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(Names()))
	for _, name := range Names() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !overwrite {
			return written, fmt.Errorf("%s already exists", path)
		}
		data, err := Read(name)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
