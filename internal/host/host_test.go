package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestAssemblyResolver_ResolvesFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Core.dll"), []byte("stub"), 0o644))

	r := NewAssemblyResolver([]string{t.TempDir(), dir})
	f, err := r.Resolve("Core", 1)
	require.NoError(t, err)
	defer f.Close()
}

func TestAssemblyResolver_NotFound(t *testing.T) {
	r := NewAssemblyResolver([]string{t.TempDir()})
	_, err := r.Resolve("Missing", 1)
	require.ErrorIs(t, err, ErrAssemblyNotFound)
}

func TestErrorToString_FormatsWrappedChain(t *testing.T) {
	base := errors.New("root cause")
	wrapped := errors.Wrap(base, "while translating")
	s := ErrorToString(wrapped)
	require.Contains(t, s, "while translating")
	require.Contains(t, s, "root cause")
}

func TestErrorToString_Nil(t *testing.T) {
	require.Equal(t, "", ErrorToString(nil))
}

func TestNewLogger_DebugAndProduction(t *testing.T) {
	l, err := NewLogger(Config{Debug: true})
	require.NoError(t, err)
	l.Trace("hello")
	require.NoError(t, l.Sync())

	l, err = NewLogger(Config{Debug: false})
	require.NoError(t, err)
	require.NotNil(t, l.Unwrap())
}
