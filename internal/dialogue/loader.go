package dialogue

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ScriptFile is the on-disk form of a dialogue.
type ScriptFile struct {
	Start  StateID  `json:"start" jsonschema:"required"`
	States []*State `json:"states" jsonschema:"required,minItems=1"`
}

// NewScriptFile captures a registry's definitions for writing to disk.
func NewScriptFile(r *Registry) *ScriptFile {
	f := &ScriptFile{Start: r.start}
	for _, id := range r.order {
		f.States = append(f.States, r.states[id].Clone())
	}
	return f
}

// Registry validates the file and builds a registry from it.
func (f *ScriptFile) Registry() (*Registry, error) {
	return NewRegistry(f.Start, f.States)
}

// DecodeScript reads a JSON script file. Unknown fields are rejected.
func DecodeScript(r io.Reader) (*ScriptFile, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f ScriptFile
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadRegistry reads and validates the script file at path.
func LoadRegistry(path string) (*Registry, error) {
	cleanPath := filepath.Clean(path)
	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open script %q: %w", cleanPath, err)
	}
	defer file.Close()

	f, err := DecodeScript(file)
	if err != nil {
		return nil, fmt.Errorf("parse script %q: %w", cleanPath, err)
	}
	reg, err := f.Registry()
	if err != nil {
		return nil, fmt.Errorf("validate script %q: %w", cleanPath, err)
	}
	return reg, nil
}
