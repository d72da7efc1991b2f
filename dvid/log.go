package dvid

import "time"

// ModeFlag is a log severity.  Messages below the current mode are dropped.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

var (
	// Verbose must be set for Debug messages to be written at all.
	Verbose bool

	mode = InfoMode
)

// Logger is the sink behind the package-level logging functions.  Each method
// formats its arguments like fmt.Printf.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	// Shutdown flushes and closes any log file.
	Shutdown()
}

// SetLogMode sets the lowest severity that is logged.  SilentMode turns off all
// logging.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

func enabled(m ModeFlag) bool {
	if m == DebugMode && !Verbose {
		return false
	}
	return m >= mode && m < SilentMode
}

func emit(l Logger, m ModeFlag, format string, args []interface{}) {
	if !enabled(m) {
		return
	}
	switch m {
	case DebugMode:
		l.Debugf(format, args...)
	case InfoMode:
		l.Infof(format, args...)
	case WarningMode:
		l.Warningf(format, args...)
	case ErrorMode:
		l.Errorf(format, args...)
	case CriticalMode:
		l.Criticalf(format, args...)
	}
}

func Debugf(format string, args ...interface{})    { emit(logger, DebugMode, format, args) }
func Infof(format string, args ...interface{})     { emit(logger, InfoMode, format, args) }
func Warningf(format string, args ...interface{})  { emit(logger, WarningMode, format, args) }
func Errorf(format string, args ...interface{})    { emit(logger, ErrorMode, format, args) }
func Criticalf(format string, args ...interface{}) { emit(logger, CriticalMode, format, args) }

// Shutdown closes any log file.
func Shutdown() {
	logger.Shutdown()
}

// TimeLog appends the time since its creation to every message:
//
//	tlog := dvid.NewTimeLog()
//	...
//	tlog.Infof("Wrote slice %d", n) // Wrote slice 3: 1.204s
type TimeLog struct {
	logger Logger
	start  time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{logger, time.Now()}
}

// Elapsed returns the time since the TimeLog was created.
func (t TimeLog) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t TimeLog) logf(m ModeFlag, format string, args []interface{}) {
	emit(t.logger, m, format+": %s\n", append(args, t.Elapsed()))
}

func (t TimeLog) Debugf(format string, args ...interface{}) { t.logf(DebugMode, format, args) }
func (t TimeLog) Infof(format string, args ...interface{})  { t.logf(InfoMode, format, args) }
