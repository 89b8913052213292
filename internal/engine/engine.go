// Package engine владеет миром, перестройщиком мешей и телом игрока.
// Все обращения к ним из других горутин идут через Engine.Do и выполняются в цикле Run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/mesh"
	"github.com/annel0/voxelcore/internal/physics"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/annel0/voxelcore/internal/engine")

// ErrStopped возвращается, когда цикл движка уже завершён
var ErrStopped = errors.New("engine: stopped")

// ErrRequestPanicked возвращается из Do, если fn запаниковала в цикле движка
var ErrRequestPanicked = errors.New("engine: request panicked")

// Источники событий в шине
const (
	SourceWorld = "world"
	SourceMesh  = "mesh"
)

// DefaultSpawn точка появления игрока, если не задана
var DefaultSpawn = mgl32.Vec3{0.5, 30, 0.5}

// Options параметры движка
type Options struct {
	TickRate   int                   // Тиков в секунду (по умолчанию 60)
	Policy     mesh.UnloadedPolicy   // Видимость граней у незагруженных соседей
	Bus        eventbus.EventBus     // Шина для block.changed и chunk.meshed (может быть nil)
	Registerer prometheus.Registerer // Регистр метрик (может быть nil)
	Spawn      *mgl32.Vec3           // Точка появления игрока
}

type request struct {
	fn   func(s *State)
	done chan struct{}
	err  error
}

// Engine является единственным владельцем состояния симуляции
type Engine struct {
	world     *world.World
	rebuilder *mesh.Rebuilder
	player    *physics.Body
	input     PlayerInput
	bus       eventbus.EventBus
	logger    *logging.Logger
	metrics   *metrics

	tickRate    int
	dt          float32
	ticks       uint64
	lastRebuild mesh.Stats
	pending     []*eventbus.Envelope

	requests chan *request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once
}

// New создаёт движок над миром w с картой текстур uv
func New(w *world.World, uv mesh.UVMap, opts Options) *Engine {
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	spawn := DefaultSpawn
	if opts.Spawn != nil {
		spawn = *opts.Spawn
	}

	e := &Engine{
		world:    w,
		player:   physics.NewPlayerBody(spawn),
		bus:      opts.Bus,
		logger:   logging.GetEngineLogger(),
		metrics:  newMetrics(opts.Registerer),
		tickRate: opts.TickRate,
		dt:       1 / float32(opts.TickRate),
		requests: make(chan *request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	var meshMetrics *mesh.Metrics
	if opts.Registerer != nil {
		meshMetrics = mesh.NewMetrics(opts.Registerer)
	}
	e.rebuilder = mesh.NewRebuilder(uv,
		mesh.WithUnloadedPolicy(opts.Policy),
		mesh.WithMetrics(meshMetrics),
		mesh.WithMeshedListener(e.onMeshed),
	)
	w.SetChangeListener(e.onBlockChanged)

	return e
}

// Run выполняет цикл владельца до отмены ctx или вызова Stop.
// Между тиками выполняются запросы, присланные через Do.
func (e *Engine) Run(ctx context.Context) error {
	err := ErrStopped
	e.runOnce.Do(func() {
		err = e.loop(ctx)
	})
	return err
}

func (e *Engine) loop(ctx context.Context) error {
	defer close(e.done)

	ticker := time.NewTicker(time.Second / time.Duration(e.tickRate))
	defer ticker.Stop()

	e.logger.Info("▶ цикл движка запущен: %d тиков/с, чанков %d", e.tickRate, e.world.Len())
	defer e.logger.Info("⏹ цикл движка остановлен после %d тиков", e.ticks)

	state := &State{e: e}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quit:
			return nil
		case req := <-e.requests:
			e.serve(req, state)
			e.flushEvents(ctx)
			close(req.done)
		case <-ticker.C:
			e.Step(ctx)
		}
	}
}

// serve выполняет запрос; паника в fn не останавливает цикл
func (e *Engine) serve(req *request, state *State) {
	defer func() {
		if r := recover(); r != nil {
			req.err = fmt.Errorf("%w: %v", ErrRequestPanicked, r)
			e.logger.Error("💥 паника в запросе к движку: %v", r)
		}
	}()
	req.fn(state)
}

// Stop завершает цикл Run. Повторные вызовы безопасны.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.quit) })
}

// Done закрывается после выхода из Run
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Do выполняет fn в горутине владельца и ждёт завершения.
// Если цикл не запущен, ожидает до отмены ctx. fn не должна сохранять ссылки на состояние.
func (e *Engine) Do(ctx context.Context, fn func(s *State)) error {
	req := &request{fn: fn, done: make(chan struct{})}

	select {
	case e.requests <- req:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// Принятый запрос выполняется циклом сразу
	<-req.done
	return req.err
}

// Step выполняет один тик: физика игрока, перестройка мешей, публикация событий.
// Вызывается только из горутины владельца (или до запуска Run).
func (e *Engine) Step(ctx context.Context) mesh.Stats {
	ctx, span := tracer.Start(ctx, "engine.Step")
	defer span.End()

	start := time.Now()

	e.applyInput()
	e.player.Step(e.dt, e.world)

	stats := e.rebuilder.RebuildDirty(ctx, e.world)
	if stats.Chunks > 0 {
		e.lastRebuild = stats
	}
	e.ticks++
	e.flushEvents(ctx)

	span.SetAttributes(attribute.Int64("engine.tick", int64(e.ticks)))
	e.metrics.observeTick(time.Since(start), e.world.Len())
	return stats
}

func (e *Engine) applyInput() {
	in := e.input
	if in.Forward != 0 || in.Strafe != 0 {
		e.player.Move(clampUnit(in.Forward), clampUnit(in.Strafe), in.Yaw)
	}
	if in.Jump {
		e.player.Jump()
		e.input.Jump = false
	}
}

func clampUnit(v float32) float32 {
	return mgl32.Clamp(v, -1, 1)
}

// Приоритеты событий: правки блоков не теряются при переполнении шины, уведомления о мешах могут
const (
	blockEventPriority = 5
	meshEventPriority  = 1
)

func (e *Engine) onBlockChanged(ev world.BlockEvent) {
	e.enqueue(SourceWorld, ev.GetType().String(), blockEventPriority, ev)
}

func (e *Engine) onMeshed(ev world.ChunkMeshedEvent) {
	e.enqueue(SourceMesh, ev.GetType().String(), meshEventPriority, ev)
}

func (e *Engine) enqueue(source, eventType string, priority int, payload interface{}) {
	if e.bus == nil {
		return
	}
	env, err := eventbus.NewEnvelope(source, eventType, payload)
	if err != nil {
		e.logger.Error("не удалось упаковать событие %s: %v", eventType, err)
		return
	}
	env.Priority = priority
	e.pending = append(e.pending, env)
}

func (e *Engine) flushEvents(ctx context.Context) {
	for _, env := range e.pending {
		if err := e.bus.Publish(ctx, env); err != nil {
			e.logger.Warn("событие %s не опубликовано: %v", env.EventType, err)
		}
	}
	e.pending = e.pending[:0]
}
