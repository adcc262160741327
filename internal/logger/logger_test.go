package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, lvl)

	lvl, err = ParseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, logrus.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestLogToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pagesdeck.log")
	factory, closer, err := MakeLogrusLogFactoryToFile(path, logrus.InfoLevel)
	require.NoError(t, err)

	log := factory("Driver")
	log.WithField("pass", 3).Info("published")
	log.Debug("dropped below level")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, "system=Driver")
	require.Contains(t, out, "pass=3")
	require.Contains(t, out, "published")
	require.False(t, strings.Contains(out, "dropped below level"))
}
