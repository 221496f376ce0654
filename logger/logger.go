package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
)

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	debugColor   = color.New(color.FgHiBlack)
	methodColor  = color.New(color.FgMagenta)

	out   = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	debug = os.Getenv("DEBUG") != ""
)

// SetOutput redirects all log lines, mostly for tests
func SetOutput(w io.Writer) {
	out.SetOutput(w)
}

func Info(format string, args ...interface{}) {
	out.Println(infoColor.Sprintf(format, args...))
}

func Success(format string, args ...interface{}) {
	out.Println(successColor.Sprint("✓ " + fmt.Sprintf(format, args...)))
}

func Warning(format string, args ...interface{}) {
	out.Println(warningColor.Sprint("⚠ " + fmt.Sprintf(format, args...)))
}

func Error(format string, args ...interface{}) {
	out.Println(errorColor.Sprint("✗ " + fmt.Sprintf(format, args...)))
}

// Debug only prints when DEBUG is set
func Debug(format string, args ...interface{}) {
	if !debug {
		return
	}
	out.Println(debugColor.Sprintf("DEBUG: "+format, args...))
}

// Request logs an HTTP request with its status and duration
func Request(method, path string, status int, duration time.Duration) {
	var c *color.Color
	switch {
	case status >= 500:
		c = errorColor
	case status >= 400:
		c = warningColor
	case status >= 300:
		c = infoColor
	default:
		c = successColor
	}
	out.Printf("%s %-50s %s %s",
		methodColor.Sprintf("%-6s", method),
		path,
		c.Sprintf("[%d]", status),
		debugColor.Sprintf("(%s)", formatDuration(duration)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
