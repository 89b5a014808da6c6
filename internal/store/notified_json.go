package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// JSONNotified keeps the notified identities as a JSON array of strings.
// Reads also accept {"version": n, "ids": [...]}.
type JSONNotified struct {
	path string
}

func NewJSONNotified(path string) *JSONNotified {
	return &JSONNotified{path: path}
}

func (j *JSONNotified) Path() string { return j.path }

type notifiedEnvelope struct {
	Version int      `json:"version"`
	IDs     []string `json:"ids"`
}

// Read returns os.ErrNotExist (wrapped) when no state has been written yet.
func (j *JSONNotified) Read(ctx context.Context) ([]string, error) {
	b, err := os.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(j.path)
	switch firstByte(b) {
	case '[':
		var ids []string
		if err := json.Unmarshal(b, &ids); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		return ids, nil
	case '{':
		var env notifiedEnvelope
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if env.IDs == nil {
			return nil, errors.New("parse " + name + ": no ids")
		}
		return env.IDs, nil
	default:
		return nil, fmt.Errorf("parse %s: want a JSON array or object", name)
	}
}

func firstByte(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// Write replaces the file atomically: temp file in the same dir, fsync, rename.
func (j *JSONNotified) Write(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, j.path)
}
