package logger

import (
	"bytes"
	"os"
	"time"
)

type destinationFile struct {
	file       *os.File
	structured bool
	buf        bytes.Buffer
}

func newDestinationFile(filePath string, structured bool) (destination, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &destinationFile{
		file:       f,
		structured: structured,
	}, nil
}

func (d *destinationFile) log(t time.Time, level Level, format string, args ...any) {
	d.buf.Reset()
	if d.structured {
		writeStructuredEntry(&d.buf, t, level, format, args)
	} else {
		writePlainEntry(&d.buf, t, level, false, format, args)
	}
	d.file.Write(d.buf.Bytes()) //nolint:errcheck
}

func (d *destinationFile) close() {
	d.file.Close()
}
