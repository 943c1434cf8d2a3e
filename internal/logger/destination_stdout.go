package logger

import (
	"bytes"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

type destinationStdout struct {
	out        io.Writer
	structured bool
	useColor   bool
	buf        bytes.Buffer
}

func newDestionationStdout(out io.Writer, structured bool) destination {
	useColor := false
	if f, ok := out.(*os.File); ok && !structured {
		useColor = term.IsTerminal(int(f.Fd()))
	}

	return &destinationStdout{
		out:        out,
		structured: structured,
		useColor:   useColor,
	}
}

func (d *destinationStdout) log(t time.Time, level Level, format string, args ...any) {
	d.buf.Reset()
	if d.structured {
		writeStructuredEntry(&d.buf, t, level, format, args)
	} else {
		writePlainEntry(&d.buf, t, level, d.useColor, format, args)
	}
	d.out.Write(d.buf.Bytes()) //nolint:errcheck
}

func (d *destinationStdout) close() {
}
