package app

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/engine"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/mesh"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUVMap_Defaults(t *testing.T) {
	uv, err := BuildUVMap(config.Default().Atlas)
	require.NoError(t, err)
	assert.Empty(t, uv.Missing(), "Все размещаемые блоки имеют текстуру")
	assert.Equal(t, mesh.DefaultUVMap(), uv)
}

func TestBuildUVMap_Overrides(t *testing.T) {
	cfg := config.Default().Atlas
	cfg.Blocks = map[string][]int{"dirt": {42}}

	uv, err := BuildUVMap(cfg)
	require.NoError(t, err)

	layout := mesh.DefaultAtlasLayout()
	want, err := layout.Tile(42)
	require.NoError(t, err)
	assert.Equal(t, want, uv.Faces(block.DirtBlockID).ForFace(mesh.FaceTop))
}

func TestBuildUVMap_Errors(t *testing.T) {
	cfg := config.Default().Atlas
	cfg.Blocks = map[string][]int{"lava": {1}}
	_, err := BuildUVMap(cfg)
	assert.ErrorIs(t, err, mesh.ErrInvalidAtlas)

	cfg.Blocks = map[string][]int{"dirt": {1, 2}}
	_, err = BuildUVMap(cfg)
	assert.ErrorIs(t, err, mesh.ErrInvalidAtlas, "Допустимо 1, 3 или 6 тайлов")

	cfg.Blocks = map[string][]int{"dirt": {100000}}
	_, err = BuildUVMap(cfg)
	assert.Error(t, err, "Тайл за пределами атласа")
}

func TestBuildWorld_Empty(t *testing.T) {
	w, spawn := BuildWorld(config.WorldConfig{RadiusChunks: 1, HeightChunks: 2})
	assert.Equal(t, 18, w.Len())
	assert.Equal(t, engine.DefaultSpawn, spawn)
}

func TestBuildWorld_GeneratedSpawnOnSurface(t *testing.T) {
	w, spawn := BuildWorld(config.WorldConfig{Seed: 7, RadiusChunks: 1, HeightChunks: 4, Generate: true})

	feet := int(spawn.Y())
	assert.Greater(t, feet, 0)
	assert.True(t, w.IsSolid(0, feet-1, 0), "Под ногами твёрдый блок")
	for y := feet; y < 64; y++ {
		assert.False(t, w.IsSolid(0, y, 0), "Над игроком пусто")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.World.UnloadedFaces = "sometimes"
	_, err := New(cfg, prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestRunAndStop(t *testing.T) {
	cfg := config.Default()
	cfg.World = config.WorldConfig{RadiusChunks: 0, HeightChunks: 1, Generate: false}
	cfg.Server.RESTPort = 38188
	cfg.Engine.TickRate = 100

	a, err := New(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	appLogger := logging.GetAppLogger()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	var ticks uint64
	require.Eventually(t, func() bool {
		_ = a.Engine().Do(context.Background(), func(s *engine.State) { ticks = s.Ticks() })
		return ticks > 2
	}, 2*time.Second, 10*time.Millisecond, "Движок тикает")

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://localhost:38188/ws/events", nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond, "Поток событий доступен")
	defer conn.Close()

	a.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run не завершился")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "Поток закрыт при остановке: %v", err)
	assert.NotSame(t, appLogger, logging.GetAppLogger(), "Логгеры компонентов закрыты при остановке")
}
