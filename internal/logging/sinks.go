package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// openSinks resolves output names into a single writer. Standard streams are
// used as-is; anything else is opened for append, creating parent dirs.
func openSinks(outputs, errorOutputs []string) (io.Writer, error) {
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	if len(errorOutputs) == 0 {
		errorOutputs = []string{"stderr"}
	}

	seen := make(map[string]bool)
	var writers []io.Writer
	for _, name := range append(append([]string{}, outputs...), errorOutputs...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		w, err := openSink(name)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openSink(name string) (io.Writer, error) {
	switch name {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if dir := filepath.Dir(name); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return file, nil
}
