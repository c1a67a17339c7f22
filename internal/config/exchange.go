package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tradecal/internal/exchange"
)

// exchangeExts lists the file extensions LoadExchangeDir picks up. JSON is a
// subset of YAML flow syntax, so one decoder serves all of them.
var exchangeExts = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// ReadExchange decodes the exchange configuration file at path without
// validating it.
func ReadExchange(path string) (exchange.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return exchange.Config{}, err
	}
	return DecodeExchange(data)
}

// DecodeExchange decodes an exchange configuration from JSON or YAML bytes.
func DecodeExchange(data []byte) (exchange.Config, error) {
	var c exchange.Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return exchange.Config{}, fmt.Errorf("%w: %v", exchange.ErrConfig, err)
	}
	return c, nil
}

// EncodeExchange renders c as YAML.
func EncodeExchange(c exchange.Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadExchange reads and validates the exchange file at path. Dates listed
// both as holiday and special day are accepted with a warning.
func LoadExchange(path string) (*exchange.Schedule, error) {
	c, err := ReadExchange(path)
	if err != nil {
		return nil, fmt.Errorf("loading exchange %s: %w", path, err)
	}
	s, err := c.Build()
	if err != nil {
		return nil, fmt.Errorf("loading exchange %s: %w", path, err)
	}
	warnConflicts(s, path)
	return s, nil
}

// LoadExchangeDir loads every .json, .yaml and .yml file in dir, keyed by
// exchange name. Duplicate names are an error.
func LoadExchangeDir(dir string) (map[string]*exchange.Schedule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading exchange dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !exchangeExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	out := make(map[string]*exchange.Schedule, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		s, err := LoadExchange(f)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name()]; ok {
			return nil, fmt.Errorf("exchange %s defined in both %s and %s", s.Name(), prev, f)
		}
		seen[s.Name()] = f
		out[s.Name()] = s
	}

	slog.Info("loaded exchanges", "dir", dir, "count", len(out))
	return out, nil
}

func warnConflicts(s *exchange.Schedule, path string) {
	for _, d := range s.Conflicts() {
		slog.Warn("date is both holiday and special trading day, holiday wins",
			"exchange", s.Name(), "date", d.String(), "file", path)
	}
}
