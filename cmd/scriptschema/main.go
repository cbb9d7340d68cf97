// Command scriptschema writes the JSON schema for dialogue script files and,
// optionally, the built-in dialogue in that format.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"PrankTerminal/internal/dialogue"
)

func main() {
	var outPath, dumpPath string
	flag.StringVar(&outPath, "out", "", "output path for the JSON schema")
	flag.StringVar(&dumpPath, "dump", "", "optional output path for the built-in dialogue script")
	flag.Parse()

	if outPath == "" {
		log.Fatal("scriptschema: missing -out path")
	}

	schema, err := dialogue.Schema()
	if err != nil {
		log.Fatalf("scriptschema: %v", err)
	}
	if err := writeJSON(outPath, schema); err != nil {
		log.Fatalf("scriptschema: write schema: %v", err)
	}

	if dumpPath == "" {
		return
	}
	reg, err := dialogue.DefaultRegistry()
	if err != nil {
		log.Fatalf("scriptschema: built-in dialogue: %v", err)
	}
	if err := writeJSON(dumpPath, dialogue.NewScriptFile(reg)); err != nil {
		log.Fatalf("scriptschema: write script: %v", err)
	}
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
