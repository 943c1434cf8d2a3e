// Package logger contains a logger implementation.
package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gookit/color"
)

// Level is a log level.
type Level int

// Log levels.
const (
	Debug Level = iota + 1
	Info
	Warn
	Error
)

// Destination is a log destination.
type Destination int

const (
	// DestinationStdout writes logs to the standard output.
	DestinationStdout Destination = iota

	// DestinationFile writes logs to a file.
	DestinationFile

	// DestinationSyslog writes logs to the system logger.
	DestinationSyslog
)

type destination interface {
	log(time.Time, Level, string, ...any)
	close()
}

// Logger is a log handler.
type Logger struct {
	Level        Level
	Destinations []Destination
	Structured   bool
	File         string
	SysLogPrefix string

	timeNow      func() time.Time
	stdout       io.Writer
	destinations []destination
	mutex        sync.Mutex
}

// Initialize initializes Logger.
func (lh *Logger) Initialize() error {
	if lh.Level == 0 {
		lh.Level = Info
	}
	if lh.timeNow == nil {
		lh.timeNow = time.Now
	}
	if lh.stdout == nil {
		lh.stdout = os.Stdout
	}
	if lh.SysLogPrefix == "" {
		lh.SysLogPrefix = "mediactl"
	}

	for _, destType := range lh.Destinations {
		switch destType {
		case DestinationStdout:
			lh.destinations = append(lh.destinations, newDestionationStdout(lh.stdout, lh.Structured))

		case DestinationFile:
			dest, err := newDestinationFile(lh.File, lh.Structured)
			if err != nil {
				lh.Close()
				return err
			}
			lh.destinations = append(lh.destinations, dest)

		case DestinationSyslog:
			dest, err := newDestinationSyslog(lh.SysLogPrefix, lh.Structured)
			if err != nil {
				lh.Close()
				return err
			}
			lh.destinations = append(lh.destinations, dest)
		}
	}

	return nil
}

// Close closes a log handler.
func (lh *Logger) Close() {
	for _, dest := range lh.destinations {
		dest.close()
	}
	lh.destinations = nil
}

// SetLevel changes the minimum level of logged entries.
func (lh *Logger) SetLevel(level Level) {
	lh.mutex.Lock()
	defer lh.mutex.Unlock()
	lh.Level = level
}

// https://golang.org/src/log/log.go#L78
func itoa(buf *bytes.Buffer, i int, wid int) {
	// Assemble decimal in reverse order.
	var b [20]byte
	bp := len(b) - 1
	for i >= 10 || wid > 1 {
		wid--
		q := i / 10
		b[bp] = byte('0' + i - q*10)
		bp--
		i = q
	}
	// i < 10
	b[bp] = byte('0' + i)
	buf.Write(b[bp:])
}

func writePlainTime(buf *bytes.Buffer, t time.Time, useColor bool) {
	var intbuf bytes.Buffer

	// date
	year, month, day := t.Date()
	itoa(&intbuf, year, 4)
	intbuf.WriteByte('/')
	itoa(&intbuf, int(month), 2)
	intbuf.WriteByte('/')
	itoa(&intbuf, day, 2)
	intbuf.WriteByte(' ')

	// time
	hour, minute, sec := t.Clock()
	itoa(&intbuf, hour, 2)
	intbuf.WriteByte(':')
	itoa(&intbuf, minute, 2)
	intbuf.WriteByte(':')
	itoa(&intbuf, sec, 2)
	intbuf.WriteByte(' ')

	if useColor {
		buf.WriteString(color.RenderString(color.Gray.Code(), intbuf.String()))
	} else {
		buf.WriteString(intbuf.String())
	}
}

func levelLabel(level Level) string {
	switch level {
	case Debug:
		return "DEB"
	case Info:
		return "INF"
	case Warn:
		return "WAR"
	}
	return "ERR"
}

func writePlainLevel(buf *bytes.Buffer, level Level, useColor bool) {
	label := levelLabel(level)

	if useColor {
		switch level {
		case Debug:
			buf.WriteString(color.RenderString(color.Debug.Code(), label))
		case Info:
			buf.WriteString(color.RenderString(color.Green.Code(), label))
		case Warn:
			buf.WriteString(color.RenderString(color.Warn.Code(), label))
		case Error:
			buf.WriteString(color.RenderString(color.Error.Code(), label))
		}
	} else {
		buf.WriteString(label)
	}

	buf.WriteByte(' ')
}

func writePlainEntry(buf *bytes.Buffer, t time.Time, level Level, useColor bool, format string, args []any) {
	writePlainTime(buf, t, useColor)
	writePlainLevel(buf, level, useColor)
	fmt.Fprintf(buf, format, args...)
	buf.WriteByte('\n')
}

func writeStructuredEntry(buf *bytes.Buffer, t time.Time, level Level, format string, args []any) {
	buf.WriteString(`{"timestamp":"`)
	buf.WriteString(t.Format(time.RFC3339Nano))
	buf.WriteString(`","level":"`)
	buf.WriteString(levelLabel(level))
	buf.WriteString(`","message":`)
	msg, _ := json.Marshal(fmt.Sprintf(format, args...))
	buf.Write(msg)
	buf.WriteString("}\n")
}

// Log writes a log entry.
func (lh *Logger) Log(level Level, format string, args ...any) {
	lh.mutex.Lock()
	defer lh.mutex.Unlock()

	if level < lh.Level {
		return
	}

	t := lh.timeNow()

	for _, dest := range lh.destinations {
		dest.log(t, level, format, args...)
	}
}
