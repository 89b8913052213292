package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl, "Пустой уровень означает INFO")

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriterLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("mesh", &buf, WARN)

	logger.Info("скрыто %d", 1)
	logger.Warn("видно %d", 2)
	logger.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [mesh] видно 2")
	assert.Contains(t, out, "[ERROR] [mesh] ошибка")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() { logger.Info("ничего") })
}

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, FileEnabled: true, ConsoleLevel: ERROR, FileLevel: DEBUG})
	defer Configure(DefaultOptions())

	logger, err := NewLogger("engine")
	require.NoError(t, err)
	logger.Debug("тик %d", 7)
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(dir, "engine_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [engine] тик 7")
}

func TestManagerReturnsSameLogger(t *testing.T) {
	lm := NewLoggerManager()

	a := lm.Logger(ComponentWorld)
	b := lm.Logger(ComponentWorld)
	assert.Same(t, a, b)
	assert.Equal(t, ComponentWorld, a.Component())
}

func TestManagerSetLevels(t *testing.T) {
	lm := NewLoggerManager()
	existing := lm.Logger(ComponentMesh)

	require.NoError(t, lm.SetLevels(map[string]string{
		ComponentMesh:   "debug",
		ComponentEngine: "error",
	}))
	assert.Equal(t, DEBUG, existing.minConsoleLevel, "Уровень применяется к созданному логгеру")
	assert.Equal(t, ERROR, lm.Logger(ComponentEngine).minConsoleLevel, "и к созданному позже")

	assert.Error(t, lm.SetLevels(map[string]string{"physics": "debug"}), "Неизвестный компонент")
	assert.Error(t, lm.SetLevels(map[string]string{ComponentMesh: "loud"}), "Неизвестный уровень")
	assert.NoError(t, lm.SetLevels(nil))
}

func TestManagerCloseAllReleasesFiles(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, FileEnabled: true, ConsoleLevel: ERROR, FileLevel: DEBUG})
	defer Configure(DefaultOptions())

	lm := NewLoggerManager()
	world := lm.Logger(ComponentWorld)
	api := lm.Logger(ComponentAPI)
	require.NotNil(t, world.file)
	require.NotNil(t, api.file)

	require.NoError(t, lm.CloseAll())
	assert.Nil(t, world.file)
	assert.Nil(t, api.file)
	assert.NotPanics(t, func() { world.Info("после закрытия пишем только в консоль") })

	assert.NotSame(t, world, lm.Logger(ComponentWorld), "После CloseAll логгер создаётся заново")
	require.NoError(t, lm.CloseAll())
}

func TestComponentsSorted(t *testing.T) {
	assert.Equal(t, []string{"api", "app", "engine", "mesh", "world"}, Components())
}
