package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoggerToStdout(t *testing.T) {
	for _, ca := range []string{
		"plain",
		"structured",
	} {
		t.Run(ca, func(t *testing.T) {
			var buf bytes.Buffer

			l := &Logger{
				Level:        Info,
				Destinations: []Destination{DestinationStdout},
				Structured:   ca == "structured",
				timeNow: func() time.Time {
					return time.Date(2003, 11, 4, 23, 15, 8, 0, time.UTC)
				},
				stdout: &buf,
			}
			err := l.Initialize()
			require.NoError(t, err)
			defer l.Close()

			l.Log(Info, "test format %d", 123)
			l.Log(Debug, "hidden")

			if ca == "plain" {
				require.Equal(t, "2003/11/04 23:15:08 INF test format 123\n", buf.String())
			} else {
				require.Equal(t, `{"timestamp":"2003-11-04T23:15:08Z",`+
					`"level":"INF","message":"test format 123"}`+"\n", buf.String())
			}
		})
	}
}

func TestLoggerToFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "mediactl-logger")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fpath := filepath.Join(dir, "out.log")

	l := &Logger{
		Level:        Debug,
		Destinations: []Destination{DestinationFile},
		File:         fpath,
		timeNow: func() time.Time {
			return time.Date(2003, 11, 4, 23, 15, 8, 0, time.UTC)
		},
	}
	err = l.Initialize()
	require.NoError(t, err)

	l.Log(Warn, "object %s expired", "abc")
	l.Close()

	byts, err := os.ReadFile(fpath)
	require.NoError(t, err)
	require.Equal(t, "2003/11/04 23:15:08 WAR object abc expired\n", string(byts))
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer

	l := &Logger{
		Level:        Error,
		Destinations: []Destination{DestinationStdout},
		Structured:   true,
		stdout:       &buf,
	}
	err := l.Initialize()
	require.NoError(t, err)
	defer l.Close()

	l.Log(Info, "first")
	require.Empty(t, buf.String())

	l.SetLevel(Debug)
	l.Log(Info, "second")
	require.Contains(t, buf.String(), `"message":"second"`)
}
