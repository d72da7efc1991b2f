package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/janelia-flyem/blockmerge/compressors"
	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/engine"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatArchive = "archive"
)

// Config is the parsed configuration file.
type Config struct {
	Compress CompressConfig `toml:"compress" yaml:"compress"`
	Output   OutputConfig   `toml:"output" yaml:"output"`
	Logging  dvid.LogConfig `toml:"logging" yaml:"logging"`

	// location of the file the config was loaded from, if any
	location string
}

// CompressConfig is the [compress] section.
type CompressConfig struct {
	// NumCPU is the number of region workers.  0 uses every logical CPU.
	NumCPU    int    `toml:"numcpu" yaml:"numcpu"`
	Threshold int    `toml:"threshold" yaml:"threshold"`
	Collapse  string `toml:"collapse" yaml:"collapse"`
	Expander  string `toml:"expander" yaml:"expander"`

	// Check validates every region's structure after compression.
	Check bool `toml:"check" yaml:"check"`
}

// OutputConfig is the [output] section.
type OutputConfig struct {
	Format      string `toml:"format" yaml:"format"`
	Compression string `toml:"compression" yaml:"compression"`
	Checksum    bool   `toml:"checksum" yaml:"checksum"`

	// Store is a badger directory that receives every compressed region.  Empty
	// disables the store.
	Store string `toml:"store" yaml:"store"`
}

// DefaultConfig returns the configuration used when no file is given.  Values not
// set in a configuration file keep these defaults.
func DefaultConfig() Config {
	return Config{
		Compress: CompressConfig{
			Threshold: engine.DefaultThreshold,
			Collapse:  "samedomain",
			Expander:  "greedy",
		},
		Output: OutputConfig{
			Format:      FormatCSV,
			Compression: "zstd",
			Checksum:    true,
		},
		Logging: dvid.LogConfig{
			MaxSize: 500,
			MaxAge:  30,
		},
	}
}

// LoadConfig reads a TOML configuration file, or YAML if the file name ends in .yaml
// or .yml.  Relative paths in the file are taken relative to the file's directory.
func LoadConfig(filename string) (Config, error) {
	c := DefaultConfig()
	if filename == "" {
		return c, fmt.Errorf("no configuration file provided")
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filename)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("could not decode YAML config %q: %w", filename, err)
		}
	default:
		md, err := toml.DecodeFile(filename, &c)
		if err != nil {
			return c, fmt.Errorf("could not decode TOML config %q: %w", filename, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) != 0 {
			dvid.Warningf("Ignoring unknown settings in %s: %v\n", filename, undecoded)
		}
	}
	c.location = filename
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return c, fmt.Errorf("could not convert relative paths to absolute paths in config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("bad config %q: %w", filename, err)
	}
	dvid.Debugf("Loaded config from %s: %+v\n", filename, c)
	return c, nil
}

// Location returns the file the config was loaded from, or "" for the default config.
func (c Config) Location() string {
	return c.location
}

// Some settings can be given as relative paths.  This converts them in place to
// absolute paths, relative to the config file's own directory.
func (c *Config) convertPathsToAbsolute(configPath string) error {
	var err error
	configDir := filepath.Dir(configPath)

	// [logging].logfile
	if c.Logging.Logfile != "" {
		c.Logging.Logfile, err = dvid.ConvertToAbsolute(c.Logging.Logfile, configDir)
		if err != nil {
			return fmt.Errorf("error converting logfile setting to absolute path: %w", err)
		}
	}

	// [output].store
	if c.Output.Store != "" {
		c.Output.Store, err = dvid.ConvertToAbsolute(c.Output.Store, configDir)
		if err != nil {
			return fmt.Errorf("error converting store setting to absolute path: %w", err)
		}
	}
	return nil
}

// Validate checks settings that can't be checked while decoding.
func (c Config) Validate() error {
	if c.Compress.NumCPU < 0 {
		return fmt.Errorf("numcpu must not be negative, got %d", c.Compress.NumCPU)
	}
	if c.Compress.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative, got %d", c.Compress.Threshold)
	}
	if _, err := c.Heuristic(); err != nil {
		return err
	}
	switch c.Output.Format {
	case FormatCSV, FormatArchive:
	default:
		return fmt.Errorf("unknown output format %q, expected %q or %q", c.Output.Format, FormatCSV, FormatArchive)
	}
	if _, _, err := c.Serialization(); err != nil {
		return err
	}
	return nil
}

// Heuristic returns the per-region compression policy.
func (c Config) Heuristic() (engine.Heuristic, error) {
	h := engine.DefaultHeuristic()
	h.Threshold = c.Compress.Threshold
	var err error
	if c.Compress.Collapse != "" {
		if h.Collapse, err = compressors.New(c.Compress.Collapse); err != nil {
			return h, err
		}
	}
	if c.Compress.Expander != "" {
		if h.Expander, err = compressors.New(c.Compress.Expander); err != nil {
			return h, err
		}
	}
	return h, nil
}

// Serialization returns the compression and checksum used for archive frames and
// stored regions.
func (c Config) Serialization() (dvid.Compression, dvid.Checksum, error) {
	compress, err := dvid.ParseCompression(c.Output.Compression)
	if err != nil {
		return compress, dvid.NoChecksum, err
	}
	if c.Output.Checksum {
		return compress, dvid.CRC32, nil
	}
	return compress, dvid.NoChecksum, nil
}
