package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

var (
	errMissingPattern = errors.New(ErrMsgMissingPattern)
	errMissingName    = errors.New(ErrMsgMissingName)
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == FlagDefaultOutput {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to stdout or atomically replaces a file
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return err
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, FilePermissions)
}

// loadData decodes render data from an inline JSON string or a JSON/YAML
// file. "-" reads the file from stdin as JSON.
func loadData(jsonStr, filePath string, stdin io.Reader) (map[string]any, error) {
	var raw []byte
	isYAML := false

	switch {
	case filePath != "":
		data, err := readInput(filePath, stdin)
		if err != nil {
			return nil, err
		}
		raw = data
		ext := strings.ToLower(filepath.Ext(filePath))
		isYAML = ext == ExtYAML || ext == ExtYML
	case jsonStr != "":
		raw = []byte(jsonStr)
	default:
		return make(map[string]any), nil
	}

	result := make(map[string]any)
	var err error
	if isYAML {
		err = yaml.Unmarshal(raw, &result)
	} else {
		err = json.Unmarshal(raw, &result)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
