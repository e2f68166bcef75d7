package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZapLogger_WritesFileCores(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "raffle.log")
	errorFile := filepath.Join(dir, "raffle.err")

	l, err := NewZapLogger(ZapConfigs{LogFile: logFile, ErrorFile: errorFile, Level: "info"})
	require.NoError(t, err)

	l.Debugf("hidden %d", 1)
	l.Infof("raffle %s created", "0x01")
	l.Errorf("cannot settle raffle %s", "0x02")
	require.NoError(t, l.Sync())

	all, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(all), "raffle 0x01 created")
	require.Contains(t, string(all), "cannot settle raffle 0x02")
	require.NotContains(t, string(all), "hidden")

	errs, err := os.ReadFile(errorFile)
	require.NoError(t, err)
	require.NotContains(t, string(errs), "raffle 0x01 created")
	require.Contains(t, string(errs), "cannot settle raffle 0x02")
}
