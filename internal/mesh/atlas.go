package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/voxelcore/internal/world/block"
)

const (
	DefaultAtlasSize = 1024 // Сторона атласа в пикселях
	DefaultTileSize  = 16   // Сторона тайла в пикселях
)

// ErrInvalidAtlas возвращается при некорректных размерах атласа
var ErrInvalidAtlas = errors.New("invalid atlas layout")

// AtlasLayout раскладывает квадратные тайлы по атласу построчно, начиная с начала координат
type AtlasLayout struct {
	Size     int
	TileSize int
}

// NewAtlasLayout проверяет размеры и создаёт раскладку
func NewAtlasLayout(size, tileSize int) (AtlasLayout, error) {
	if size <= 0 || tileSize <= 0 {
		return AtlasLayout{}, fmt.Errorf("%w: size=%d tile=%d", ErrInvalidAtlas, size, tileSize)
	}
	if size%tileSize != 0 {
		return AtlasLayout{}, fmt.Errorf("%w: size %d is not a multiple of tile %d", ErrInvalidAtlas, size, tileSize)
	}
	return AtlasLayout{Size: size, TileSize: tileSize}, nil
}

// DefaultAtlasLayout атлас 1024x1024 из тайлов 16x16
func DefaultAtlasLayout() AtlasLayout {
	return AtlasLayout{Size: DefaultAtlasSize, TileSize: DefaultTileSize}
}

// TilesPerRow количество тайлов в строке
func (a AtlasLayout) TilesPerRow() int {
	return a.Size / a.TileSize
}

// Capacity общее количество тайлов
func (a AtlasLayout) Capacity() int {
	n := a.TilesPerRow()
	return n * n
}

// Tile возвращает UV-прямоугольник тайла по его порядковому номеру
func (a AtlasLayout) Tile(index int) (UVRect, error) {
	if index < 0 || index >= a.Capacity() {
		return UVRect{}, fmt.Errorf("%w: tile %d out of range [0,%d)", ErrInvalidAtlas, index, a.Capacity())
	}
	perRow := a.TilesPerRow()
	x := float32((index % perRow) * a.TileSize)
	y := float32((index / perRow) * a.TileSize)
	size := float32(a.Size)
	tile := float32(a.TileSize)

	return UVRect{
		U0: x / size,
		V0: y / size,
		U1: (x + tile) / size,
		V1: (y + tile) / size,
	}, nil
}

// Faces строит BlockFaces из списка тайлов:
// 1 тайл - все грани; 3 - бока, верх, низ; 6 - верх, низ, перед, зад, лево, право.
func (a AtlasLayout) Faces(tiles []int) (BlockFaces, error) {
	rects := make([]UVRect, len(tiles))
	for i, t := range tiles {
		r, err := a.Tile(t)
		if err != nil {
			return BlockFaces{}, err
		}
		rects[i] = r
	}

	switch len(rects) {
	case 1:
		return AllFaces(rects[0]), nil
	case 3:
		return SideFaces(rects[0], rects[1], rects[2]), nil
	case 6:
		return EachFaces(rects[0], rects[1], rects[2], rects[3], rects[4], rects[5]), nil
	default:
		return BlockFaces{}, fmt.Errorf("%w: expected 1, 3 or 6 tiles, got %d", ErrInvalidAtlas, len(tiles))
	}
}

// BuildUVMap строит карту текстур для набора блоков
func (a AtlasLayout) BuildUVMap(tiles map[block.BlockID][]int) (UVMap, error) {
	uv := make(UVMap, len(tiles))
	for id, t := range tiles {
		faces, err := a.Faces(t)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", id, err)
		}
		uv[id] = faces
	}
	return uv, nil
}

// DefaultTiles раскладка тайлов стандартного набора блоков
func DefaultTiles() map[block.BlockID][]int {
	return map[block.BlockID][]int{
		block.DirtBlockID:        {0},
		block.GrassBlockID:       {1, 2, 0},
		block.CobblestoneBlockID: {3},
		block.ObsidianBlockID:    {4},
		block.OakLogBlockID:      {5, 6, 6},
		block.OakLeavesBlockID:   {7},
		block.DebugBlockID:       {8},
		block.Debug2BlockID:      {9},
	}
}

// DefaultUVMap карта текстур стандартного набора блоков в атласе по умолчанию
func DefaultUVMap() UVMap {
	uv, err := DefaultAtlasLayout().BuildUVMap(DefaultTiles())
	if err != nil {
		panic(err)
	}
	return uv
}

// TilesFromNames переводит конфигурацию вида "имя блока -> тайлы" в карту по ID
func TilesFromNames(named map[string][]int) (map[block.BlockID][]int, error) {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	tiles := make(map[block.BlockID][]int, len(named))
	for _, name := range names {
		id, ok := block.ParseName(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown block %q", ErrInvalidAtlas, name)
		}
		if id.IsAir() {
			return nil, fmt.Errorf("%w: air has no texture", ErrInvalidAtlas)
		}
		tiles[id] = named[name]
	}
	return tiles, nil
}
