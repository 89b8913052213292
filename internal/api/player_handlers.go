package api

import (
	"net/http"

	"github.com/annel0/voxelcore/internal/engine"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
)

// PlayerView состояние игрока вместе с удерживаемым вводом
type PlayerView struct {
	engine.PlayerState
	Input engine.PlayerInput `json:"input"`
}

// TeleportRequest тело POST /player/teleport
type TeleportRequest struct {
	Position mgl32.Vec3 `json:"position"`
}

// handleGetPlayer возвращает состояние игрока
func (rs *RestServer) handleGetPlayer(c *gin.Context) {
	var view PlayerView
	if !rs.do(c, func(s *engine.State) {
		view = PlayerView{PlayerState: s.PlayerState(), Input: s.Input()}
	}) {
		return
	}
	ok(c, "Состояние игрока", view)
}

// handlePlayerInput заменяет удерживаемый ввод игрока
func (rs *RestServer) handlePlayerInput(c *gin.Context) {
	var in engine.PlayerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	var state engine.PlayerState
	if !rs.do(c, func(s *engine.State) {
		s.SetInput(in)
		state = s.PlayerState()
	}) {
		return
	}
	ok(c, "Ввод принят", PlayerView{PlayerState: state, Input: in})
}

// handleTeleport переносит игрока
func (rs *RestServer) handleTeleport(c *gin.Context) {
	var req TeleportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	var state engine.PlayerState
	if !rs.do(c, func(s *engine.State) {
		s.Player().Teleport(req.Position)
		state = s.PlayerState()
	}) {
		return
	}
	ok(c, "Игрок перенесён", state)
}
