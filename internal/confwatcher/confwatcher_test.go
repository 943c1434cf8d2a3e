package confwatcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediactl/mediactl/internal/test"
)

func writeFile(t *testing.T, fpath string, content string) {
	err := os.WriteFile(fpath, []byte(content), 0o644)
	require.NoError(t, err)
}

func waitSignal(t *testing.T, w *ConfWatcher) {
	select {
	case <-w.Watch():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestNoFile(t *testing.T) {
	w := &ConfWatcher{FilePath: "/nonexistent/mediactl.yml"}
	err := w.Initialize()
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	fpath, err := test.CreateTempFile([]byte("{}"))
	require.NoError(t, err)
	defer os.Remove(fpath)

	w := &ConfWatcher{FilePath: fpath}
	err = w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, fpath, "logLevel: debug\n")
	waitSignal(t, w)
}

func TestWriteMultipleTimes(t *testing.T) {
	fpath, err := test.CreateTempFile([]byte("{}"))
	require.NoError(t, err)
	defer os.Remove(fpath)

	w := &ConfWatcher{FilePath: fpath}
	err = w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, fpath, "logLevel: debug\n")
	time.Sleep(10 * time.Millisecond)
	writeFile(t, fpath, "logLevel: info\n")

	waitSignal(t, w)

	select {
	case <-time.After(500 * time.Millisecond):
	case <-w.Watch():
		t.Fatal("should not happen")
	}
}

func TestOtherFile(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "mediactl.yml")
	writeFile(t, fpath, "{}")

	w := &ConfWatcher{FilePath: fpath}
	err := w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, filepath.Join(dir, "other.yml"), "{}")

	select {
	case <-time.After(300 * time.Millisecond):
	case <-w.Watch():
		t.Fatal("should not happen")
	}
}

func TestDeleteCreate(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "mediactl.yml")
	writeFile(t, fpath, "{}")

	w := &ConfWatcher{FilePath: fpath}
	err := w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	os.Remove(fpath)
	time.Sleep(10 * time.Millisecond)
	writeFile(t, fpath, "objectTTL: 10s\n")

	waitSignal(t, w)
}

func TestSymlinkSwap(t *testing.T) {
	dir := t.TempDir()
	target1 := filepath.Join(dir, "v1.yml")
	target2 := filepath.Join(dir, "v2.yml")
	link := filepath.Join(dir, "mediactl.yml")

	writeFile(t, target1, "{}")
	writeFile(t, target2, "objectTTL: 10s\n")
	require.NoError(t, os.Symlink(target1, link))

	w := &ConfWatcher{FilePath: link}
	err := w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.Remove(link))
	require.NoError(t, os.Symlink(target2, link))

	waitSignal(t, w)
}
