// Package log is the console narration layer: every attempted operation
// and every fallback strategy is printed with a status glyph, so the
// cascade behavior is observable rather than hidden. Structured logging
// goes to zerolog in parallel.
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 display configuration
const (
	recordIndent   = 4  // spaces to indent record entries
	strategyIndent = 6  // spaces to indent strategy attempts
	findWidth      = 35 // base width for the find text
	statusWidth    = 12 // width for status text
)

// 🎯 RecordOperation represents one applied edit record for logging.
type RecordOperation struct {
	Find           string // target text
	Replace        string // replacement text
	Action         string // replace/delete/comment/replace_with_logo
	Occurrences    int    // occurrences affected
	Failed         bool   // the replace call itself failed
	Skipped        bool   // record was not actionable
	CommentOutcome string // winning attachment strategy, empty if no comment
}

// 🎯 Logger narrates to a console writer and mirrors to zerolog. A mirror
// callback can tee every console line elsewhere (the dashboard hub).
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	mirror  func(line string)
}

// 🏭 New creates a new logger.
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// SetMirror installs a callback that receives every console line.
func (l *Logger) SetMirror(fn func(line string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mirror = fn
}

// emit writes one console line, feeding the mirror if installed.
// Callers must hold the mutex.
func (l *Logger) emit(line string) {
	fmt.Fprintln(l.console, line)
	if l.mirror != nil {
		l.mirror(line)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// 📝 formatRecordOperation formats a record entry for display.
func (l *Logger) formatRecordOperation(op RecordOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	var status string
	switch {
	case op.Failed:
		symbol = '✗'
		symbolColor = color.FgRed
		status = "failed"
	case op.Skipped:
		symbol = '-'
		symbolColor = color.FgYellow
		status = "skipped"
	case op.Occurrences == 0:
		symbol = '•'
		symbolColor = color.FgCyan
		status = "no match"
	default:
		symbol = '✓'
		symbolColor = color.FgGreen
		status = fmt.Sprintf("%d replaced", op.Occurrences)
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", recordIndent),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", findWidth, truncate(op.Find, findWidth)),
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", statusWidth, op.Action)),
		status)
	if op.CommentOutcome != "" {
		line += color.New(color.Faint).Sprint(" (comment: " + op.CommentOutcome + ")")
	}
	return line
}

// 📝 LogRecordOperation logs one applied edit record.
func (l *Logger) LogRecordOperation(op RecordOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.emit(l.formatRecordOperation(op))

	l.zlog.Info().
		Str("find", op.Find).
		Str("action", op.Action).
		Int("occurrences", op.Occurrences).
		Bool("failed", op.Failed).
		Bool("skipped", op.Skipped).
		Str("comment_outcome", op.CommentOutcome).
		Msg("record operation")
}

// 📝 LogStrategyAttempt narrates one fallback-cascade attempt.
func (l *Logger) LogStrategyAttempt(group, name string, ok bool, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	symbol := color.New(color.FgGreen).Sprint("✓")
	if !ok {
		symbol = color.New(color.Faint).Sprint("↷")
	}
	line := fmt.Sprintf("%s%s %s/%s", strings.Repeat(" ", strategyIndent), symbol, group, name)
	if detail != "" {
		line += color.New(color.Faint).Sprint(" " + detail)
	}
	l.emit(line)

	l.zlog.Debug().
		Str("group", group).
		Str("strategy", name).
		Bool("succeeded", ok).
		Str("detail", detail).
		Msg("strategy attempt")
}

// 📝 Header logs a run header.
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("policyedit")
	l.emit(fmt.Sprintf("\n%s %s\n", name, color.New(color.Faint).Sprint("• "+msg)))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message.
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emit("✅ " + color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message.
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emit("⚠️  " + color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message.
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emit("❌ " + color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message.
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emit("ℹ️  " + color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message.
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
