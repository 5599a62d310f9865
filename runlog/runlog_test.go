package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigurations(t *testing.T) {
	configs := DefaultConfigurations("results-512")
	require.Len(t, configs, 6)

	wantProcs := []int{1, 2, 4, 8, 12, 16}
	wantLabels := []string{"1x1", "2x1", "2x2", "4x2", "6x2", "4x4"}
	for i, cfg := range configs {
		assert.Equal(t, wantProcs[i], cfg.Processors)
		assert.Equal(t, wantLabels[i], cfg.Label)
		assert.Equal(t, filepath.Join("results-512", "log-out-"+wantLabels[i]+".txt"), cfg.Path)
	}

	assert.Equal(t, "1 processor", configs[0].SeriesLabel())
	assert.Equal(t, "16 processors", configs[5].SeriesLabel())
}

func TestParse(t *testing.T) {
	t.Run("ReadsTimeColumn", func(t *testing.T) {
		log, err := Parse(strings.NewReader("epoch,time\n0,1.5\n1,2.25\n2,0.5\n"))
		require.NoError(t, err)

		assert.Equal(t, []float64{1.5, 2.25, 0.5}, log.Times())
		assert.Equal(t, 3, log.Len())
		assert.Equal(t, []string{"epoch", "time"}, log.NumericColumns())
	})

	t.Run("DropsNonNumericColumns", func(t *testing.T) {
		log, err := Parse(strings.NewReader("step,time,solver\n1,0.1,PISO\n2,0.2,PISO\n"))
		require.NoError(t, err)

		assert.Equal(t, []string{"step", "time"}, log.NumericColumns())
		_, ok := log.Columns["solver"]
		assert.False(t, ok)
	})

	t.Run("TrimsHeaderAndValues", func(t *testing.T) {
		log, err := Parse(strings.NewReader("epoch, time\n0, 3.5\n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{3.5}, log.Times())
	})

	t.Run("SingleRow", func(t *testing.T) {
		log, err := Parse(strings.NewReader("time\n42\n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{42}, log.Times())
	})

	t.Run("MissingTimeColumn", func(t *testing.T) {
		_, err := Parse(strings.NewReader("epoch,duration\n0,1\n"))
		assert.ErrorIs(t, err, ErrNoTimeColumn)
	})

	t.Run("InvalidTimeValue", func(t *testing.T) {
		_, err := Parse(strings.NewReader("time\n1.0\nabc\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 3")
	})

	t.Run("NoDataRows", func(t *testing.T) {
		_, err := Parse(strings.NewReader("time\n"))
		assert.Error(t, err)
	})

	t.Run("RaggedRow", func(t *testing.T) {
		_, err := Parse(strings.NewReader("epoch,time\n0,1\n1\n"))
		assert.Error(t, err)
	})
}

func TestLoadAll(t *testing.T) {
	t.Run("LoadsEveryConfiguration", func(t *testing.T) {
		dir := t.TempDir()
		configs := DefaultConfigurations(dir)
		for i, cfg := range configs {
			writeLog(t, dir, filepath.Base(cfg.Path), "time\n1\n"+strings.Repeat("2\n", i))
		}

		logs, err := LoadAll(configs)
		require.NoError(t, err)
		require.Len(t, logs, 6)
		for i, log := range logs {
			assert.Equal(t, configs[i], log.Config)
			assert.Equal(t, i+1, log.Len())
		}
	})

	t.Run("FailsOnMissingFile", func(t *testing.T) {
		dir := t.TempDir()
		configs := DefaultConfigurations(dir)
		writeLog(t, dir, filepath.Base(configs[0].Path), "time\n1\n")

		logs, err := LoadAll(configs)
		assert.Error(t, err)
		assert.Nil(t, logs)
		assert.Contains(t, err.Error(), "log-out-2x1.txt")
	})
}
