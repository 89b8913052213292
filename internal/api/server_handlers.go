package api

import (
	"fmt"
	"time"

	"github.com/annel0/voxelcore/internal/engine"
	"github.com/gin-gonic/gin"
)

// handleServerInfo возвращает состояние процесса и движка
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	var ticks uint64
	var chunks int
	var policy string
	var rebuild gin.H
	if !rs.do(c, func(s *engine.State) {
		ticks = s.Ticks()
		chunks = s.World().Len()
		policy = s.Policy().String()
		last := s.LastRebuild()
		rebuild = gin.H{
			"chunks":      last.Chunks,
			"faces":       last.Faces,
			"vertices":    last.Vertices,
			"duration_ms": float64(last.Duration) / float64(time.Millisecond),
		}
	}) {
		return
	}

	info := gin.H{
		"name":           "voxelcore",
		"status":         "running",
		"uptime":         rs.metrics.GetUptime(),
		"ticks":          ticks,
		"chunks":         chunks,
		"unloaded_faces": policy,
		"last_rebuild":   rebuild,
		"runtime":        rs.metrics.GetRuntimeStats(),
	}
	if cpu, err := rs.metrics.GetCPUUsage(); err == nil {
		info["cpu_percent"] = fmt.Sprintf("%.1f", cpu)
	}
	if rss, err := rs.metrics.GetRSS(); err == nil {
		info["rss_mb"] = fmt.Sprintf("%.1f", rss)
	}
	if rs.bus != nil {
		info["events"] = rs.bus.Metrics()
	}

	ok(c, "Информация о сервере", info)
}
