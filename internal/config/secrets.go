// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir holds one file per credential.
const DefaultSecretsDir = ".secrets"

// LoadSecrets reads all files in dir and returns a map of filename to
// trimmed contents. The filename is the key name: ncbi-api-key, ncbi-email,
// openalex-email. A missing directory yields an empty map. Unreadable files
// produce a warning on stderr but do not abort.
func LoadSecrets(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}
