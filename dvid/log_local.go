package dvid

import (
	"fmt"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
)

// stdLogger sends messages through the standard log package, which is redirected
// to a rotating log file if one is configured.
type stdLogger struct {
	*lumberjack.Logger
}

var logger Logger = stdLogger{}

// LogConfig is the [logging] section of the configuration file.
type LogConfig struct {
	Logfile string `toml:"logfile" yaml:"logfile"`
	MaxSize int    `toml:"max_log_size" yaml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age" yaml:"max_log_age"`
}

// SetLogger creates a logger that saves to a rotating log file.  Log messages go to
// stderr if no log file is given so stdout can carry the compressed grid.
func (c *LogConfig) SetLogger() {
	if c == nil || c.Logfile == "" {
		log.SetOutput(os.Stderr)
		logger = stdLogger{}
		return
	}
	fmt.Fprintf(os.Stderr, "Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	log.SetOutput(l)
	logger = stdLogger{l}
}

// SetTestLogger directs all logging to the given logger.  Used in tests to capture
// or silence output.
func SetTestLogger(l Logger) {
	if l == nil {
		logger = stdLogger{}
		return
	}
	logger = l
}

// --- Logger implementation ----

func (slog stdLogger) Debugf(format string, args ...interface{}) {
	log.Printf("   DEBUG "+format, args...)
}

func (slog stdLogger) Infof(format string, args ...interface{}) {
	log.Printf("    INFO "+format, args...)
}

func (slog stdLogger) Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

func (slog stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf("   ERROR "+format, args...)
}

func (slog stdLogger) Criticalf(format string, args ...interface{}) {
	log.Printf("CRITICAL "+format, args...)
}

func (slog stdLogger) Shutdown() {
	if slog.Logger != nil {
		log.Printf("Closing log file...\n")
		slog.Close()
		log.SetOutput(os.Stderr)
	}
}
