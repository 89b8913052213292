package api

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/annel0/voxelcore/internal/engine"
	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/mesh"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *RestServer
	engine *engine.Engine
	bus    eventbus.EventBus
}

// newTestEnv: 3x1x3 чанка, булыжник на y = 0..3, движок запущен
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := world.NewWorld()
	w.PreloadEmpty(1, 1)
	for x := -16; x < 32; x++ {
		for z := -16; z < 32; z++ {
			for y := 0; y < 4; y++ {
				w.SetBlock(x, y, z, block.CobblestoneBlockID)
			}
		}
	}

	bus := eventbus.NewMemoryBus(1024)
	spawn := mgl32.Vec3{0.5, 4, 0.5}
	e := engine.New(w, mesh.DefaultUVMap(), engine.Options{TickRate: 50, Bus: bus, Spawn: &spawn})
	e.Step(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()

	rs, err := NewRestServer(Config{Engine: e, Bus: bus, Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)

	t.Cleanup(func() {
		cancel()
		<-e.Done()
		_ = rs.Stop(context.Background())
		_ = bus.Close()
	})
	return &testEnv{server: rs, engine: e, bus: bus}
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (env *testEnv) request(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	var resp response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.request(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestGetBlock(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.request(t, "GET", "/api/v1/blocks/1/2/-3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	var view BlockView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, block.CobblestoneBlockID, view.ID)
	assert.Equal(t, "cobblestone", view.Name)
	assert.Equal(t, -3, view.Position.Z)

	w, resp = env.request(t, "GET", "/api/v1/blocks/100/0/0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "Незагруженный чанк")
	assert.False(t, resp.Success)

	w, _ = env.request(t, "GET", "/api/v1/blocks/a/0/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetBlock(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.request(t, "PUT", "/api/v1/blocks/3/3/3", SetBlockRequest{Block: "dirt"})
	require.Equal(t, http.StatusOK, w.Code)

	_, resp := env.request(t, "GET", "/api/v1/blocks/3/3/3", nil)
	var view BlockView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, block.DirtBlockID, view.ID)

	w, _ = env.request(t, "PUT", "/api/v1/blocks/3/3/3", SetBlockRequest{Block: "lava"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "Неизвестный блок")

	w, _ = env.request(t, "PUT", "/api/v1/blocks/3/100/3", SetBlockRequest{Block: "dirt"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.request(t, "PUT", "/api/v1/blocks/3/3/3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "Пустое тело")
}

func TestRaycast(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.request(t, "POST", "/api/v1/raycast", RaycastRequest{
		Origin:    mgl32.Vec3{5.5, 10, 5.5},
		Direction: mgl32.Vec3{0, -1, 0},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Hit    bool            `json:"hit"`
		Target engine.BlockHit `json:"target"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Hit)
	assert.Equal(t, 3, data.Target.Position.Y)
	assert.Equal(t, 1, data.Target.Normal.Y)
	assert.InDelta(t, 6, data.Target.Distance, 1e-4)

	_, resp = env.request(t, "POST", "/api/v1/raycast", RaycastRequest{
		Origin:    mgl32.Vec3{5.5, 10, 5.5},
		Direction: mgl32.Vec3{0, 1, 0},
		Distance:  20,
	})
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.False(t, data.Hit)

	w, _ = env.request(t, "POST", "/api/v1/raycast", RaycastRequest{Origin: mgl32.Vec3{0, 10, 0}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "Нулевое направление")
}

func TestRaycast_ExtremeInput(t *testing.T) {
	env := newTestEnv(t)

	for _, dir := range []mgl32.Vec3{{0, -1e20, 0}, {0, -3e-23, 0}} {
		w, resp := env.request(t, "POST", "/api/v1/raycast", RaycastRequest{
			Origin:    mgl32.Vec3{5.5, 10, 5.5},
			Direction: dir,
		})
		require.Equal(t, http.StatusOK, w.Code, "направление %v", dir)

		var data struct {
			Hit    bool            `json:"hit"`
			Target engine.BlockHit `json:"target"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.True(t, data.Hit)
		assert.Equal(t, 3, data.Target.Position.Y)
	}

	w, _ := env.request(t, "POST", "/api/v1/raycast", RaycastRequest{
		Origin:    mgl32.Vec3{5.5, 10, 5.5},
		Direction: mgl32.Vec3{0, 1, 0},
		Distance:  1e12,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "Дальность больше дальности взаимодействия")

	w, _ = env.request(t, "POST", "/api/v1/raycast", RaycastRequest{
		Origin:    mgl32.Vec3{0, 1e30, 0},
		Direction: mgl32.Vec3{0, -1, 0},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "Начало луча слишком далеко")

	// Движок продолжает отвечать
	w, _ = env.request(t, "GET", "/api/v1/blocks/5/3/5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInteract_ExtremeDirection(t *testing.T) {
	env := newTestEnv(t)

	origin := mgl32.Vec3{8.5, 10, 8.5}
	for _, dir := range []mgl32.Vec3{{0, -1e20, 0}, {0, -3e-23, 0}} {
		dir := dir
		w, resp := env.request(t, "POST", "/api/v1/interact", InteractRequest{
			Action: engine.ActionBreak, Origin: &origin, Direction: &dir,
		})
		require.Equal(t, http.StatusOK, w.Code, "направление %v", dir)

		var res engine.InteractResult
		require.NoError(t, json.Unmarshal(resp.Data, &res))
		assert.True(t, res.Changed)
	}

	far := mgl32.Vec3{1e30, 10, 0}
	down := mgl32.Vec3{0, -1, 0}
	w, _ := env.request(t, "POST", "/api/v1/interact", InteractRequest{
		Action: engine.ActionBreak, Origin: &far, Direction: &down,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInteract(t *testing.T) {
	env := newTestEnv(t)

	origin := mgl32.Vec3{8.5, 10, 8.5}
	down := mgl32.Vec3{0, -1, 0}

	w, resp := env.request(t, "POST", "/api/v1/interact", InteractRequest{
		Action: engine.ActionBreak, Origin: &origin, Direction: &down,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res engine.InteractResult
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.True(t, res.Changed)
	assert.Equal(t, 8, res.Affects.X)
	assert.Equal(t, 3, res.Affects.Y)

	w, resp = env.request(t, "POST", "/api/v1/interact", InteractRequest{
		Action: engine.ActionPlace, Block: "obsidian", Origin: &origin, Direction: &down,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.True(t, res.Changed)

	_, resp = env.request(t, "GET", "/api/v1/blocks/8/3/8", nil)
	var view BlockView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "obsidian", view.Name)

	w, _ = env.request(t, "POST", "/api/v1/interact", InteractRequest{Action: "kick", Origin: &origin, Direction: &down})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.request(t, "POST", "/api/v1/interact", InteractRequest{Action: engine.ActionBreak, Origin: &origin})
	assert.Equal(t, http.StatusBadRequest, w.Code, "origin без direction")
}

func TestInteractFromCamera(t *testing.T) {
	env := newTestEnv(t)

	// Взгляд прямо вниз из глаз игрока
	w, _ := env.request(t, "POST", "/api/v1/player/input", engine.PlayerInput{Pitch: -math.Pi / 2})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := env.request(t, "POST", "/api/v1/interact", InteractRequest{Action: engine.ActionBreak})
	require.Equal(t, http.StatusOK, w.Code)

	var res engine.InteractResult
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.True(t, res.Hit)
	assert.Equal(t, 3, res.Target.Position.Y, "Блок под ногами игрока")
}

func TestChunksAndMesh(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.request(t, "GET", "/api/v1/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Chunks []engine.ChunkInfo `json:"chunks"`
		Total  int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 9, list.Total)

	w, _ = env.request(t, "GET", "/api/v1/chunks/0/0/0/mesh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zstd", w.Header().Get("Content-Type"))

	vertexCount, err := strconv.Atoi(w.Header().Get("X-Vertex-Count"))
	require.NoError(t, err)
	require.Greater(t, vertexCount, 0)

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()

	raw, err := dec.DecodeAll(w.Body.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, raw, vertexCount*world.FloatsPerVertex*4)

	// Первая координата вершины лежит внутри чанка
	x := math.Float32frombits(binary.LittleEndian.Uint32(raw[0:4]))
	assert.True(t, x >= 0 && x <= world.ChunkSize)

	w, _ = env.request(t, "GET", "/api/v1/chunks/9/9/9/mesh", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDrawList(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.request(t, "GET", "/api/v1/draw", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		DrawCalls []engine.DrawCall `json:"draw_calls"`
		Total     int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 9, data.Total)
	assert.Nil(t, data.DrawCalls[0].Vertices, "Вершины не передаются в JSON")
}

func TestPlayerInputAndTeleport(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.request(t, "POST", "/api/v1/player/input", engine.PlayerInput{Yaw: 1.5})
	require.Equal(t, http.StatusOK, w.Code)

	_, resp := env.request(t, "GET", "/api/v1/player", nil)
	var view PlayerView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.InDelta(t, 1.5, view.Input.Yaw, 1e-6)

	w, resp = env.request(t, "POST", "/api/v1/player/teleport", TeleportRequest{Position: mgl32.Vec3{4.5, 20, 4.5}})
	require.Equal(t, http.StatusOK, w.Code)

	var state engine.PlayerState
	require.NoError(t, json.Unmarshal(resp.Data, &state))
	assert.Equal(t, float32(20), state.Position.Y())
	assert.False(t, state.OnGround)
}

func TestServerInfoAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.request(t, "GET", "/api/v1/server", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, float64(9), info["chunks"])
	assert.Equal(t, "visible", info["unloaded_faces"])
	assert.Contains(t, info, "events")

	w, _ = env.request(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rest_api_http_request_duration_seconds")
}

func TestEngineStopped(t *testing.T) {
	env := newTestEnv(t)
	env.engine.Stop()
	<-env.engine.Done()

	w, resp := env.request(t, "GET", "/api/v1/player", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, resp.Success)

	w, _ = env.request(t, "GET", "/health", nil)
	assert.Contains(t, w.Body.String(), `"status":"stopped"`)
}

func TestEventsWebsocket(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events?type=block.changed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Подписка оформляется после апгрейда; повторяем запись, пока событие не придёт
	received := make(chan eventbus.Envelope, 1)
	go func() {
		var ev eventbus.Envelope
		if err := conn.ReadJSON(&ev); err == nil {
			received <- ev
		}
	}()

	ids := []string{"dirt", "obsidian"}
	deadline := time.After(2 * time.Second)
	for i := 0; ; i++ {
		w, _ := env.request(t, "PUT", "/api/v1/blocks/2/3/2", SetBlockRequest{Block: ids[i%2]})
		require.Equal(t, http.StatusOK, w.Code)

		select {
		case ev := <-received:
			assert.Equal(t, "block.changed", ev.EventType)
			assert.Equal(t, engine.SourceWorld, ev.Source)

			var payload world.BlockEvent
			require.NoError(t, json.Unmarshal(ev.Payload, &payload))
			assert.Equal(t, 2, payload.Position.X)
			assert.Equal(t, 3, payload.Position.Y)
			return
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("событие не получено")
		}
	}
}

// readUntilClosed читает сообщения до ошибки чтения и возвращает её
func readUntilClosed(t *testing.T, conn *websocket.Conn) error {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func TestEventsWebsocket_ClosedOnStop(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, env.server.Stop(ctx), "Stop дожидается завершения потоков")

	err = readUntilClosed(t, conn)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "ожидалось закрытие GoingAway, получено %v", err)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake, "После Stop новые потоки не принимаются")
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestEventsWebsocket_ClosedWithBus(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, env.bus.Close())

	err = readUntilClosed(t, conn)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseTryAgainLater),
		"ожидалось закрытие потока, получено %v", err)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5*time.Second))
	assert.Equal(t, "2м 3с", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1ч 0м 0с", formatUptime(time.Hour))
	assert.Equal(t, "1д 1ч 0м 0с", formatUptime(25*time.Hour))
}

func TestSplitQuery(t *testing.T) {
	assert.Nil(t, splitQuery(""))
	assert.Equal(t, []string{"a", "b"}, splitQuery("a, b,,"))
}
