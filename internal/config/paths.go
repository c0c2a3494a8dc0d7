package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".rxflow"

// Paths holds resolved filesystem paths for rxflow data.
type Paths struct {
	Base    string // ~/.rxflow
	Config  string // ~/.rxflow/config.yaml
	Data    string // ~/.rxflow/data
	Logs    string // ~/.rxflow/logs
	Catalog string // ~/.rxflow/catalog
}

// ResolvePaths computes all standard paths from the home directory.
// If RXFLOW_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("RXFLOW_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:    base,
		Config:  filepath.Join(base, "config.yaml"),
		Data:    filepath.Join(base, "data"),
		Logs:    filepath.Join(base, "logs"),
		Catalog: filepath.Join(base, "catalog"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.Base, p.Data, p.Logs, p.Catalog}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// DefaultStorePath returns the default sqlite database location.
func (p Paths) DefaultStorePath() string {
	return filepath.Join(p.Data, "rxflow.db")
}
