/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valpere/texdiff/internal/config"
	"github.com/valpere/texdiff/internal/differ"
	"github.com/valpere/texdiff/internal/flatten"
	"github.com/valpere/texdiff/internal/store"
)

// buildProvider constructs the word-diff provider from the resolved configuration.
func buildProvider(cfg config.Config) differ.Provider {
	git := differ.NewGitWordDiff(cfg.ContextLines)
	if cfg.GitBinary != "" {
		git.Binary = cfg.GitBinary
	}
	return git
}

// providerKey identifies everything besides the flattened documents and
// colours that shapes the output, for use as a cache key.
func providerKey(cfg config.Config, provider differ.Provider) string {
	return fmt.Sprintf("%s -U%d", provider.Name(), cfg.ContextLines)
}

// openStore opens the history database, creating its directory.
func openStore(dbPath string) (*store.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func writeOutput(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func logWarnings(path string, warnings []flatten.Warning) {
	for _, w := range warnings {
		logger.Warn("malformed document markup", "file", path, "kind", w.Kind.String(), "detail", w.String())
	}
}
