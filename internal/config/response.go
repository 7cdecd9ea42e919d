package config

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// ExpandResponseFiles replaces every "@file" argument with the
// shell-quoted words read from file, one or more per line. Lines starting
// with '#' are skipped. Expansion is not recursive.
func ExpandResponseFiles(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) < 2 || !strings.HasPrefix(arg, "@") {
			out = append(out, arg)
			continue
		}
		words, err := readResponseFile(arg[1:])
		if err != nil {
			return nil, err
		}
		out = append(out, words...)
	}
	return out, nil
}

func readResponseFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("response file: %w", err)
	}
	var words []string
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := shell.Fields(line, noEnv)
		if err != nil {
			return nil, fmt.Errorf("response file %s:%d: %w", path, i+1, err)
		}
		words = append(words, fields...)
	}
	return words, nil
}

// noEnv keeps response files independent of the caller's environment.
func noEnv(string) string { return "" }
