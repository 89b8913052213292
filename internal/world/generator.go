package world

import (
	"sort"

	"github.com/annel0/voxelcore/internal/util"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// Параметры генерации по умолчанию
const (
	DefaultNoiseScale   = 1.0 / 64.0 // Масштаб шума высоты
	DefaultAmplitude    = 16.0       // Высота поверхности = 2*Amplitude*шум
	DefaultTreeChance   = 100        // Дерево в среднем в 1 из 100 колонок
	DefaultTrunkHeight  = 5          // Высота ствола
	treeSeedSalt        = 7919       // Отделяет хэш деревьев от других применений сида
	surfaceProfileDepth = 3          // Блоков под поверхностью в вертикальном профиле
)

// WorldGenerator заполняет загруженные чанки ландшафтом
type WorldGenerator struct {
	Seed        int64   // Сид для генерации шума
	NoiseScale  float64 // Масштаб шума высоты
	BaseHeight  int     // Сдвиг высоты поверхности
	Amplitude   float64 // Амплитуда высоты
	TreeChance  uint64  // 1 из TreeChance колонок получает дерево (0 - без деревьев)
	TrunkHeight int     // Высота ствола дерева

	noise *util.Noise2D
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:        seed,
		NoiseScale:  DefaultNoiseScale,
		Amplitude:   DefaultAmplitude,
		TreeChance:  DefaultTreeChance,
		TrunkHeight: DefaultTrunkHeight,
		noise:       util.NewNoise2D(seed),
	}
}

// SurfaceHeight возвращает высоту поверхности в колонке (x, z).
// Шум берётся в мировых координатах, поэтому высота непрерывна на границах чанков.
func (wg *WorldGenerator) SurfaceHeight(x, z int) int {
	n := wg.noise.At(float64(x)*wg.NoiseScale, float64(z)*wg.NoiseScale)
	return wg.BaseHeight + int(2*wg.Amplitude*n)
}

// HasTree решает, растёт ли дерево в колонке (x, z)
func (wg *WorldGenerator) HasTree(x, z int) bool {
	if wg.TreeChance == 0 {
		return false
	}
	return util.Hash2(wg.Seed+treeSeedSalt, x, z)%wg.TreeChance == 0
}

// Populate заполняет все колонки загруженных чанков.
// Колонки обходятся в детерминированном порядке, так что результат зависит только от сида.
func (wg *WorldGenerator) Populate(w *World) {
	columns := make(map[[2]int]struct{})
	w.Range(func(coord vec.Vec3, _ *Chunk) bool {
		columns[[2]int{coord.X, coord.Z}] = struct{}{}
		return true
	})

	keys := make([][2]int, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	for _, k := range keys {
		startX := k[0] * ChunkSize
		startZ := k[1] * ChunkSize
		for z := startZ; z < startZ+ChunkSize; z++ {
			for x := startX; x < startX+ChunkSize; x++ {
				wg.populateColumn(w, x, z)
			}
		}
	}
}

// populateColumn ставит вертикальный профиль и, возможно, дерево
func (wg *WorldGenerator) populateColumn(w *World, x, z int) {
	y := wg.SurfaceHeight(x, z)

	w.SetBlock(x, y, z, block.GrassBlockID)
	w.SetBlock(x, y-1, z, block.DirtBlockID)
	w.SetBlock(x, y-2, z, block.DirtBlockID)
	w.SetBlock(x, y-surfaceProfileDepth, z, block.CobblestoneBlockID)

	if wg.HasTree(x, z) {
		wg.placeTree(w, x, y, z)
	}
}

// placeTree ставит дуб с основанием ствола над поверхностью (x, y, z)
func (wg *WorldGenerator) placeTree(w *World, x, y, z int) {
	h := wg.TrunkHeight

	for i := y + 1; i < y+1+h; i++ {
		w.SetBlock(x, i, z, block.OakLogBlockID)
	}

	// Два широких слоя листвы 5x5 вокруг ствола
	for yy := y + h - 2; yy <= y+h-1; yy++ {
		for xx := x - 2; xx <= x+2; xx++ {
			for zz := z - 2; zz <= z+2; zz++ {
				if xx != x || zz != z {
					w.SetBlock(xx, yy, zz, block.OakLeavesBlockID)
				}
			}
		}
	}

	// Слой 3x3 на уровне вершины ствола
	for xx := x - 1; xx <= x+1; xx++ {
		for zz := z - 1; zz <= z+1; zz++ {
			if xx != x || zz != z {
				w.SetBlock(xx, y+h, zz, block.OakLeavesBlockID)
			}
		}
	}

	// Крестообразная верхушка
	top := y + h + 1
	w.SetBlock(x, top, z, block.OakLeavesBlockID)
	w.SetBlock(x+1, top, z, block.OakLeavesBlockID)
	w.SetBlock(x-1, top, z, block.OakLeavesBlockID)
	w.SetBlock(x, top, z+1, block.OakLeavesBlockID)
	w.SetBlock(x, top, z-1, block.OakLeavesBlockID)
}
