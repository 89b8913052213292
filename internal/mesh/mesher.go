package mesh

import (
	"context"
	"fmt"
	"math/bits"
	"sort"
	"strings"
	"time"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/annel0/voxelcore/internal/mesh")

// UnloadedPolicy определяет видимость грани, соседний блок которой лежит в незагруженном чанке
type UnloadedPolicy uint8

const (
	// FacesVisible: отсутствие данных считается пустотой, грань рисуется
	FacesVisible UnloadedPolicy = iota
	// FacesOccluded: незагруженный сосед закрывает грань, край мира не рисуется
	FacesOccluded
)

// String возвращает имя политики в формате конфигурации
func (p UnloadedPolicy) String() string {
	if p == FacesOccluded {
		return "occluded"
	}
	return "visible"
}

// ParseUnloadedPolicy разбирает значение world.unloaded_faces
func ParseUnloadedPolicy(s string) (UnloadedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "visible":
		return FacesVisible, nil
	case "occluded":
		return FacesOccluded, nil
	default:
		return FacesVisible, fmt.Errorf("unknown unloaded face policy %q", s)
	}
}

// FaceMask это битовая маска видимых граней, бит i соответствует Face(i)
type FaceMask uint8

// Has проверяет видимость грани
func (m FaceMask) Has(f Face) bool {
	return m&(1<<f) != 0
}

// Count количество видимых граней
func (m FaceMask) Count() int {
	return bits.OnesCount8(uint8(m))
}

// Stats итог прохода перестройки
type Stats struct {
	Chunks   int           `json:"chunks"`
	Faces    int           `json:"faces"`
	Vertices int           `json:"vertices"`
	Duration time.Duration `json:"duration"`
}

// Rebuilder перестраивает меши грязных чанков. Единственный писатель буферов вершин.
type Rebuilder struct {
	uv       UVMap
	policy   UnloadedPolicy
	metrics  *Metrics
	logger   *logging.Logger
	onMeshed func(ev world.ChunkMeshedEvent)

	masks   [world.ChunkVolume]FaceMask
	scratch []float32
}

// Option настраивает Rebuilder
type Option func(r *Rebuilder)

// WithUnloadedPolicy задаёт политику для граней на краю загруженной области
func WithUnloadedPolicy(p UnloadedPolicy) Option {
	return func(r *Rebuilder) { r.policy = p }
}

// WithMetrics включает Prometheus-метрики
func WithMetrics(m *Metrics) Option {
	return func(r *Rebuilder) { r.metrics = m }
}

// WithLogger задаёт логгер
func WithLogger(l *logging.Logger) Option {
	return func(r *Rebuilder) { r.logger = l }
}

// WithMeshedListener задаёт функцию, вызываемую после перестройки каждого чанка
func WithMeshedListener(fn func(ev world.ChunkMeshedEvent)) Option {
	return func(r *Rebuilder) { r.onMeshed = fn }
}

// NewRebuilder создаёт перестройщик с картой текстур uv
func NewRebuilder(uv UVMap, opts ...Option) *Rebuilder {
	r := &Rebuilder{
		uv:     uv,
		policy: FacesVisible,
		logger: logging.GetMeshLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy возвращает текущую политику незагруженных соседей
func (r *Rebuilder) Policy() UnloadedPolicy {
	return r.policy
}

// DirtySet возвращает загруженные чанки, меш которых нужно перестроить:
// грязные чанки и соседи, отмеченные в их dirtyNeighbours. Порядок детерминирован.
func (r *Rebuilder) DirtySet(w *world.World) []vec.Vec3 {
	coords, _ := r.collect(w)
	return coords
}

// collect возвращает набор для перестройки и чанки, чьи отметки в него вошли
func (r *Rebuilder) collect(w *world.World) ([]vec.Vec3, []*world.Chunk) {
	set := make(map[vec.Vec3]struct{})
	var sources []*world.Chunk

	w.Range(func(coord vec.Vec3, c *world.Chunk) bool {
		if !c.NeedsRebuild() {
			return true
		}
		sources = append(sources, c)
		if c.Dirty() {
			set[coord] = struct{}{}
		}
		for _, d := range c.DirtyNeighbours() {
			set[coord.Add(d)] = struct{}{}
		}
		return true
	})

	coords := make([]vec.Vec3, 0, len(set))
	for coord := range set {
		if _, ok := w.Chunk(coord); ok {
			coords = append(coords, coord)
		}
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords, sources
}

// FaceMask вычисляет видимые грани блока в мировых координатах (x, y, z)
func (r *Rebuilder) FaceMask(w *world.World, x, y, z int) FaceMask {
	var m FaceMask
	for i, d := range vec.Directions() {
		if r.faceVisible(w, x+d.X, y+d.Y, z+d.Z) {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (r *Rebuilder) faceVisible(w *world.World, x, y, z int) bool {
	id, ok := w.GetBlock(x, y, z)
	if !ok {
		return r.policy == FacesVisible
	}
	return id.IsTransparent()
}

// RebuildDirty перестраивает все грязные чанки мира и сбрасывает их флаги.
// Проход всегда выполняется до конца; ctx используется только для трассировки.
func (r *Rebuilder) RebuildDirty(ctx context.Context, w *world.World) Stats {
	_, span := tracer.Start(ctx, "mesh.RebuildDirty")
	defer span.End()

	start := time.Now()
	var stats Stats

	// Сначала собираем список: очистка флагов не должна влиять на набор в этом проходе
	coords, sources := r.collect(w)
	for _, coord := range coords {
		c, _ := w.Chunk(coord)
		faces := r.rebuildChunk(w, coord, c)

		stats.Chunks++
		stats.Faces += faces
		stats.Vertices += faces * VerticesPerFace
	}

	// Отметки соседей учтены, в том числе направленные в незагруженные чанки
	for _, c := range sources {
		c.ClearDirty()
	}
	stats.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("mesh.chunks", stats.Chunks),
		attribute.Int("mesh.faces", stats.Faces),
	)
	r.metrics.observe(stats)

	if stats.Chunks > 0 {
		r.logger.Debug("перестроено чанков: %d, граней: %d за %s", stats.Chunks, stats.Faces, stats.Duration)
	}
	return stats
}

// RebuildAll помечает все загруженные чанки грязными и перестраивает их
func (r *Rebuilder) RebuildAll(ctx context.Context, w *world.World) Stats {
	w.Range(func(_ vec.Vec3, c *world.Chunk) bool {
		c.MarkDirty()
		return true
	})
	return r.RebuildDirty(ctx, w)
}

// rebuildChunk пересчитывает маски, загружает вершины в буфер чанка и возвращает число граней
func (r *Rebuilder) rebuildChunk(w *world.World, coord vec.Vec3, c *world.Chunk) int {
	origin := coord.Scale(world.ChunkSize)

	faces := 0
	i := 0
	for y := 0; y < world.ChunkSize; y++ {
		for z := 0; z < world.ChunkSize; z++ {
			for x := 0; x < world.ChunkSize; x++ {
				m := FaceMask(0)
				if !c.GetBlock(x, y, z).IsAir() {
					m = r.FaceMask(w, origin.X+x, origin.Y+y, origin.Z+z)
					faces += m.Count()
				}
				r.masks[i] = m
				i++
			}
		}
	}

	size := faces * VerticesPerFace * world.FloatsPerVertex
	if cap(r.scratch) < size {
		r.scratch = make([]float32, 0, size)
	}
	buf := r.scratch[:0]

	i = 0
	for y := 0; y < world.ChunkSize; y++ {
		for z := 0; z < world.ChunkSize; z++ {
			for x := 0; x < world.ChunkSize; x++ {
				m := r.masks[i]
				i++

				id := c.GetBlock(x, y, z)
				if id.IsAir() {
					continue
				}
				uv := r.uv.Faces(id)
				if m == 0 {
					continue
				}

				fx, fy, fz := float32(x), float32(y), float32(z)
				for f := Face(0); f < FaceCount; f++ {
					if m.Has(f) {
						buf = appendFace(buf, f, fx, fy, fz, uv.ForFace(f))
					}
				}
			}
		}
	}

	c.UploadMesh(buf, faces*VerticesPerFace)
	c.ClearDirty()

	if r.onMeshed != nil {
		r.onMeshed(world.ChunkMeshedEvent{
			Chunk:       coord,
			Handle:      c.Mesh().Handle.String(),
			VertexCount: c.VertexCount(),
		})
	}
	return faces
}
