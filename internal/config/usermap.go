package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// UserMap maps VCS author names to SonarQube logins.
type UserMap map[string]string

// ParseUserMap parses "author=login;author2=login2". Every entry needs
// exactly one '='; an author may appear once. Surrounding spaces and a
// trailing ';' are ignored. An empty string is an empty map.
func ParseUserMap(s string) (UserMap, error) {
	result := UserMap{}
	if strings.TrimSpace(s) == "" {
		return result, nil
	}

	for _, entry := range strings.Split(s, ";") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		parts := strings.Split(entry, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid user map syntax '%s'", entry)
		}
		author := strings.TrimSpace(parts[0])
		login := strings.TrimSpace(parts[1])
		if author == "" || login == "" {
			return nil, fmt.Errorf("invalid user map syntax '%s'", entry)
		}
		if _, ok := result[author]; ok {
			return nil, fmt.Errorf("duplicate user map entry '%s'", author)
		}
		result[author] = login
	}
	return result, nil
}

// LoadUserMapFile reads a flat author-to-login mapping from a YAML (.yaml,
// .yml), TOML (.toml) or JSON (.json) file. Author names keep their case.
func LoadUserMapFile(path string) (UserMap, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("read user map file: %w", err)
	}

	raw := map[string]any{}
	if err := decodeByExt(path, data, &raw); err != nil {
		return nil, fmt.Errorf("parse user map file %s: %w", path, err)
	}
	result, err := userMapFromTable(raw)
	if err != nil {
		return nil, fmt.Errorf("user map file %s: %w", path, err)
	}
	return result, nil
}

// configFileUserMap reads the user_map table straight from a config file.
// Viper folds mapping keys to lower case, author names are case-sensitive.
func configFileUserMap(path string) (UserMap, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var doc struct {
		UserMap map[string]any `yaml:"user_map" toml:"user_map" json:"user_map"`
	}
	if err := decodeByExt(path, data, &doc); err != nil {
		return nil, fmt.Errorf("%s in %s: %w", KeyUserMap, path, err)
	}
	result, err := userMapFromTable(doc.UserMap)
	if err != nil {
		return nil, fmt.Errorf("%s in %s: %w", KeyUserMap, path, err)
	}
	return result, nil
}

// userMapFromTable checks a decoded author-to-login table. Logins must be
// non-empty strings, and an author may appear once after trimming.
func userMapFromTable(table map[string]any) (UserMap, error) {
	result := make(UserMap, len(table))
	for author, value := range table {
		login, ok := value.(string)
		author = strings.TrimSpace(author)
		login = strings.TrimSpace(login)
		if !ok || author == "" || login == "" {
			return nil, fmt.Errorf("empty author or login in entry %q=%v", author, value)
		}
		if _, dup := result[author]; dup {
			return nil, fmt.Errorf("duplicate user map entry '%s'", author)
		}
		result[author] = login
	}
	return result, nil
}

// decodeByExt unmarshals data into out using the format named by the
// extension of path.
func decodeByExt(path string, data []byte, out any) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".toml":
		_, err := toml.Decode(string(data), out)
		return err
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported format %q (use .yaml, .yml, .toml or .json)", ext)
	}
}

// Merge adds other's entries to m. An author present in both is an error.
func (m UserMap) Merge(other UserMap) error {
	for author, login := range other {
		if _, ok := m[author]; ok {
			return fmt.Errorf("duplicate user map entry '%s'", author)
		}
		m[author] = login
	}
	return nil
}
