// Package logger adapts the teacher's colored package-level logger
// (Debug/Info/Warn/Error/Success/Fatal/Section/Banner) onto
// github.com/sirupsen/logrus, keeping the same call surface so the rest of
// the module logs the same way the teacher's gamemode/server code did,
// while gaining structured fields for connection/peer context that the
// teacher's fmt.Sprintf-based formatter had no room for.
package logger

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	base.SetOutput(os.Stdout)
}

// SetLevel sets the minimum log level ("debug", "info", "warn", "error").
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	base.Debugf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	base.Infof(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	base.Warnf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	base.Errorf(format, args...)
}

// Success logs a notable positive event. logrus has no distinct level for
// this, so it rides on Info with a result field — the functional
// equivalent of the teacher's green SUCCESS line, minus the ANSI color.
func Success(format string, args ...interface{}) {
	base.WithField("result", "success").Infof(format, args...)
}

// Fatal logs a fatal error and exits, same contract as the teacher's.
func Fatal(format string, args ...interface{}) {
	base.Fatalf(format, args...)
}

// With returns a field-scoped entry for call sites that want structured
// context (peer address, connection id) attached to every subsequent line.
func With(fields logrus.Fields) *logrus.Entry {
	return base.WithFields(fields)
}

// NewCorrelationID mints an identifier for tying together every log line a
// single connection produces over its lifetime (handshake, delivery,
// shutdown), since an address alone is reused across reconnects.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Section prints a section header. Kept as a plain console print rather
// than a log line, same as the teacher's — operator-facing banner output,
// not a log record.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║ %-57s ║\n", title)
	fmt.Printf("╚%s╝\n\n", border)
}

// Banner prints the application banner.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ██████╗ ██╗   ██╗██████╗ ██████╗                        ║
║   ██╔══██╗██║   ██║██╔══██╗██╔══██╗                       ║
║   ██████╔╝██║   ██║██║  ██║██████╔╝                       ║
║   ██╔══██╗██║   ██║██║  ██║██╔═══╝                        ║
║   ██║  ██║╚██████╔╝██████╔╝██║                            ║
║   ╚═╝  ╚═╝ ╚═════╝ ╚═════╝ ╚═╝                            ║
║                                                           ║
║              %-37s║
║                    Version %-7s                      ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, title, version)
}
