package mesh

import (
	"fmt"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
)

// Face обозначает грань куба. Порядок совпадает с vec.Directions: +x, -x, +y, -y, +z, -z.
type Face uint8

const (
	FaceRight  Face = iota // +x
	FaceLeft               // -x
	FaceTop                // +y
	FaceBottom             // -y
	FaceFront              // +z
	FaceBack               // -z
)

// FaceCount количество граней куба
const FaceCount = 6

var faceNames = [FaceCount]string{"right", "left", "top", "bottom", "front", "back"}

// String возвращает имя грани
func (f Face) String() string {
	if int(f) < FaceCount {
		return faceNames[f]
	}
	return fmt.Sprintf("face(%d)", f)
}

// Normal возвращает внешнюю нормаль грани
func (f Face) Normal() vec.Vec3 {
	return vec.Directions()[f]
}

// UVRect задаёт прямоугольник в атласе: (U0, V0) левый нижний угол, (U1, V1) правый верхний
type UVRect struct {
	U0 float32 `json:"u0"`
	V0 float32 `json:"v0"`
	U1 float32 `json:"u1"`
	V1 float32 `json:"v1"`
}

// FacesKind определяет, как текстуры распределены по граням блока
type FacesKind uint8

const (
	FacesAll   FacesKind = iota // Одна текстура на все грани
	FacesSides                  // Боковые, верх и низ
	FacesEach                   // Своя текстура на каждую грань
)

// BlockFaces описывает UV-прямоугольники граней одного вида блока
type BlockFaces struct {
	Kind FacesKind

	All UVRect

	Sides  UVRect
	Top    UVRect
	Bottom UVRect

	Front UVRect
	Back  UVRect
	Left  UVRect
	Right UVRect
}

// AllFaces одна текстура на все шесть граней
func AllFaces(all UVRect) BlockFaces {
	return BlockFaces{Kind: FacesAll, All: all}
}

// SideFaces отдельные текстуры для боков, верха и низа
func SideFaces(sides, top, bottom UVRect) BlockFaces {
	return BlockFaces{Kind: FacesSides, Sides: sides, Top: top, Bottom: bottom}
}

// EachFaces отдельная текстура на каждую грань
func EachFaces(top, bottom, front, back, left, right UVRect) BlockFaces {
	return BlockFaces{
		Kind:   FacesEach,
		Top:    top,
		Bottom: bottom,
		Front:  front,
		Back:   back,
		Left:   left,
		Right:  right,
	}
}

// ForFace возвращает UV-прямоугольник для грани
func (bf BlockFaces) ForFace(f Face) UVRect {
	switch bf.Kind {
	case FacesAll:
		return bf.All
	case FacesSides:
		switch f {
		case FaceTop:
			return bf.Top
		case FaceBottom:
			return bf.Bottom
		default:
			return bf.Sides
		}
	default:
		switch f {
		case FaceTop:
			return bf.Top
		case FaceBottom:
			return bf.Bottom
		case FaceFront:
			return bf.Front
		case FaceBack:
			return bf.Back
		case FaceLeft:
			return bf.Left
		default:
			return bf.Right
		}
	}
}

// UVMap сопоставляет виду блока его текстуры. Используется мешером только на чтение.
type UVMap map[block.BlockID]BlockFaces

// Faces возвращает текстуры блока.
// Каждый размещаемый блок обязан иметь запись, иначе это ошибка программы и вызывается паника.
func (m UVMap) Faces(id block.BlockID) BlockFaces {
	faces, ok := m[id]
	if !ok {
		panic(fmt.Sprintf("mesh: no UV entry for block %s", id))
	}
	return faces
}

// Missing возвращает размещаемые блоки без записи в карте
func (m UVMap) Missing() []block.BlockID {
	var missing []block.BlockID
	for _, id := range block.Placeable() {
		if _, ok := m[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
