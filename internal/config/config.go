package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Engine tunes curation runs.
type Engine struct {
	// Workers caps the goroutines of a per-record step. 0 picks a count from
	// the batch size and GOMAXPROCS.
	Workers          int  `toml:"workers"`
	TrackHistory     bool `toml:"track_history"`
	SuppressWarnings bool `toml:"suppress_warnings"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Output names where a run writes its artefacts. Empty paths are skipped.
type Output struct {
	ReportPath  string `toml:"report_path"`
	ResultsDB   string `toml:"results_db"`
	DrawingPath string `toml:"drawing_path"`
}

// Config encapsulates all configuration values for chemcurate.
type Config struct {
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`
	Output  Output  `toml:"output"`
}

const projectFile = "chemcurate.toml"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chemcurate/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error: defaults are returned and exists is false.
func Load(path string) (*Config, string, bool, error) {
	c := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, errors.Wrap(err, "open config")
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, "", false, errors.Wrapf(err, "parse config %s", resolved)
		}
	}

	if err := c.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}

	return &c, resolved, exists, nil
}

// Overrides are command line values. Zero values leave the config untouched.
type Overrides struct {
	Workers     *int
	History     *bool
	LogLevel    string
	LogFormat   string
	ReportPath  string
	ResultsDB   string
	DrawingPath string
}

// Apply layers o over c, then normalises and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.Workers != nil {
		c.Engine.Workers = *o.Workers
	}
	if o.History != nil {
		c.Engine.TrackHistory = *o.History
	}
	for dst, src := range map[*string]string{
		&c.Logging.Level:      o.LogLevel,
		&c.Logging.Format:     o.LogFormat,
		&c.Output.ReportPath:  o.ReportPath,
		&c.Output.ResultsDB:   o.ResultsDB,
		&c.Output.DrawingPath: o.DrawingPath,
	} {
		if src != "" {
			*dst = src
		}
	}
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// Encode writes c as TOML.
func (c *Config) Encode() (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return "", errors.Wrap(err, "encode config")
	}
	return sb.String(), nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, errors.Wrap(err, "stat config")
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectFile)
	if err != nil {
		return "", false, errors.Wrap(err, "resolve project config")
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolve home directory")
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", errors.Wrapf(err, "resolve absolute path for %q", pathValue)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for flags given on the command line.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
