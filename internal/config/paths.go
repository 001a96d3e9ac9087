package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".pipedeck"

// Paths holds resolved filesystem paths for pipedeck data.
type Paths struct {
	Base   string // ~/.pipedeck
	Config string // ~/.pipedeck/config.yaml
	Data   string // ~/.pipedeck/data
	Logs   string // ~/.pipedeck/logs
}

// ResolvePaths computes the standard paths from the home directory.
// PIPEDECK_HOME overrides the base directory when set.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("PIPEDECK_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates the standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// TranscriptDB returns the default transcript database path.
func (p Paths) TranscriptDB() string {
	return filepath.Join(p.Data, "transcripts.db")
}
