package api

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/annel0/voxelcore/internal/engine"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockView блок в ответах API
type BlockView struct {
	Position vec.Vec3      `json:"position"`
	ID       block.BlockID `json:"id"`
	Name     string        `json:"name"`
	Solid    bool          `json:"solid"`
}

func newBlockView(pos vec.Vec3, id block.BlockID) BlockView {
	return BlockView{Position: pos, ID: id, Name: id.String(), Solid: id.IsSolid()}
}

// SetBlockRequest тело PUT /blocks/:x/:y/:z
type SetBlockRequest struct {
	Block string `json:"block" binding:"required"` // Имя блока, например "cobblestone"
}

// RaycastRequest тело POST /raycast
type RaycastRequest struct {
	Origin    mgl32.Vec3 `json:"origin"`
	Direction mgl32.Vec3 `json:"direction"`
	Distance  float32    `json:"distance"` // 0 - дальность взаимодействия; больше неё запрещено
}

// InteractRequest тело POST /interact. Без origin/direction луч идёт из глаз игрока.
type InteractRequest struct {
	Action    engine.Action `json:"action" binding:"required"`
	Block     string        `json:"block"` // Для place; пусто - блок по умолчанию
	Origin    *mgl32.Vec3   `json:"origin"`
	Direction *mgl32.Vec3   `json:"direction"`
}

// parseVec3 читает три целых параметра пути
func parseVec3(c *gin.Context, kx, ky, kz string) (vec.Vec3, bool) {
	x, errX := strconv.Atoi(c.Param(kx))
	y, errY := strconv.Atoi(c.Param(ky))
	z, errZ := strconv.Atoi(c.Param(kz))
	if errX != nil || errY != nil || errZ != nil {
		fail(c, http.StatusBadRequest, "Координаты должны быть целыми числами")
		return vec.Vec3{}, false
	}
	return vec.Vec3{X: x, Y: y, Z: z}, true
}

// handleBlockCatalog возвращает все виды блоков
func (rs *RestServer) handleBlockCatalog(c *gin.Context) {
	type entry struct {
		ID          block.BlockID `json:"id"`
		Name        string        `json:"name"`
		Solid       bool          `json:"solid"`
		Transparent bool          `json:"transparent"`
	}
	var out []entry
	for _, id := range block.All() {
		out = append(out, entry{ID: id, Name: id.String(), Solid: id.IsSolid(), Transparent: id.IsTransparent()})
	}
	ok(c, "Каталог блоков", out)
}

// handleGetBlock возвращает блок по мировым координатам
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	pos, valid := parseVec3(c, "x", "y", "z")
	if !valid {
		return
	}

	var id block.BlockID
	var loaded bool
	if !rs.do(c, func(s *engine.State) { id, loaded = s.GetBlock(pos) }) {
		return
	}
	if !loaded {
		fail(c, http.StatusNotFound, "Чанк не загружен")
		return
	}
	ok(c, "Блок получен", newBlockView(pos, id))
}

// handleSetBlock записывает блок по мировым координатам
func (rs *RestServer) handleSetBlock(c *gin.Context) {
	pos, valid := parseVec3(c, "x", "y", "z")
	if !valid {
		return
	}

	var req SetBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	id, known := block.ParseName(req.Block)
	if !known {
		fail(c, http.StatusBadRequest, "Неизвестный блок: "+req.Block)
		return
	}

	var written bool
	var err error
	if !rs.do(c, func(s *engine.State) { written, err = s.SetBlock(pos, id) }) {
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !written {
		fail(c, http.StatusNotFound, "Чанк не загружен")
		return
	}
	ok(c, "Блок записан", newBlockView(pos, id))
}

// handleRaycast ищет первый не-воздушный блок вдоль луча
func (rs *RestServer) handleRaycast(c *gin.Context) {
	var req RaycastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	if req.Distance <= 0 {
		req.Distance = engine.ReachDistance
	}
	if req.Distance > engine.ReachDistance {
		fail(c, http.StatusBadRequest, fmt.Sprintf("distance больше %d", engine.ReachDistance))
		return
	}

	var hit engine.BlockHit
	var found bool
	var err error
	if !rs.do(c, func(s *engine.State) { hit, found, err = s.Raycast(req.Origin, req.Direction, req.Distance) }) {
		return
	}
	if isBadRequest(err) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		ok(c, "Луч ни во что не попал", gin.H{"hit": false})
		return
	}
	ok(c, "Попадание", gin.H{"hit": true, "target": hit, "name": hit.Block.String()})
}

// handleInteract ломает или ставит блок
func (rs *RestServer) handleInteract(c *gin.Context) {
	var req InteractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	place := engine.DefaultPlaceBlock
	if req.Block != "" {
		id, known := block.ParseName(req.Block)
		if !known {
			fail(c, http.StatusBadRequest, "Неизвестный блок: "+req.Block)
			return
		}
		place = id
	}
	if (req.Origin == nil) != (req.Direction == nil) {
		fail(c, http.StatusBadRequest, "origin и direction задаются вместе")
		return
	}

	var res engine.InteractResult
	var err error
	done := rs.do(c, func(s *engine.State) {
		if req.Origin != nil {
			res, err = s.Interact(*req.Origin, *req.Direction, req.Action, place)
			return
		}
		res, err = s.InteractFromCamera(req.Action, place)
	})
	if !done {
		return
	}

	switch {
	case isBadRequest(err):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	rs.logger.Debug("взаимодействие %s: hit=%v changed=%v at %+v", req.Action, res.Hit, res.Changed, res.Affects)
	ok(c, "Взаимодействие выполнено", res)
}

// isBadRequest отделяет ошибки входных данных от внутренних
func isBadRequest(err error) bool {
	return errors.Is(err, engine.ErrInvalidAction) ||
		errors.Is(err, engine.ErrInvalidBlock) ||
		errors.Is(err, engine.ErrZeroDirection) ||
		errors.Is(err, engine.ErrInvalidDirection) ||
		errors.Is(err, engine.ErrInvalidOrigin)
}

// handleChunks перечисляет загруженные чанки
func (rs *RestServer) handleChunks(c *gin.Context) {
	var chunks []engine.ChunkInfo
	if !rs.do(c, func(s *engine.State) { chunks = s.Chunks() }) {
		return
	}
	ok(c, "Загруженные чанки", gin.H{"chunks": chunks, "total": len(chunks)})
}

// handleDrawList возвращает список отрисовки без вершин
func (rs *RestServer) handleDrawList(c *gin.Context) {
	var calls []engine.DrawCall
	if !rs.do(c, func(s *engine.State) { calls = s.DrawList() }) {
		return
	}
	ok(c, "Список отрисовки", gin.H{"draw_calls": calls, "total": len(calls)})
}

// handleChunkMesh отдаёт вершины чанка: little-endian float32, сжатые zstd
func (rs *RestServer) handleChunkMesh(c *gin.Context) {
	coord, valid := parseVec3(c, "cx", "cy", "cz")
	if !valid {
		return
	}

	var call engine.DrawCall
	var found bool
	if !rs.do(c, func(s *engine.State) { call, found = s.ChunkMesh(coord) }) {
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "Чанк не загружен")
		return
	}

	raw := encodeFloats(call.Vertices)
	body := rs.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/4))

	c.Header("X-Mesh-Handle", call.Handle)
	c.Header("X-Vertex-Count", strconv.Itoa(call.VertexCount))
	c.Header("X-Raw-Length", strconv.Itoa(len(raw)))
	c.Data(http.StatusOK, "application/zstd", body)
}

// encodeFloats раскладывает вершины в little-endian float32
func encodeFloats(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}
