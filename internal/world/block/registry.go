package block

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

var registry = make(map[BlockID]Properties)

// Register добавляет свойства блока в каталог
func Register(id BlockID, props Properties) {
	registry[id] = props
}

// Get возвращает свойства для указанного ID
func Get(id BlockID) (Properties, bool) {
	props, exists := registry[id]
	return props, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// BlockID представляет идентификатор вида блока
type BlockID uint8

// Константы ID блоков
const (
	AirBlockID         BlockID = iota // 0
	DirtBlockID                       // 1
	CobblestoneBlockID                // 2
	ObsidianBlockID                   // 3
	GrassBlockID                      // 4
	OakLogBlockID                     // 5
	OakLeavesBlockID                  // 6
	DebugBlockID                      // 7
	Debug2BlockID                     // 8 - ставится игроком по умолчанию
)

// IsAir возвращает true для воздуха: не занимает места и никогда не рисуется
func (id BlockID) IsAir() bool {
	props, ok := registry[id]
	return !ok || props.Air
}

// IsTransparent возвращает true, если блок не закрывает грань соседа
func (id BlockID) IsTransparent() bool {
	props, ok := registry[id]
	return !ok || props.Air || props.Transparent
}

// IsSolid возвращает true, если блок участвует в коллизиях и попаданиях луча
func (id BlockID) IsSolid() bool {
	return !id.IsAir()
}

// String возвращает имя блока
func (id BlockID) String() string {
	if props, ok := registry[id]; ok {
		return props.Name
	}
	return fmt.Sprintf("unknown(%d)", uint8(id))
}

// ParseName находит блок по имени без учета регистра
func ParseName(name string) (BlockID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, props := range registry {
		if props.Name == name {
			return id, true
		}
	}
	return AirBlockID, false
}

// All возвращает все зарегистрированные блоки по возрастанию ID
func All() []BlockID {
	ids := make([]BlockID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Placeable возвращает все блоки, кроме воздуха
func Placeable() []BlockID {
	ids := All()
	out := ids[:0]
	for _, id := range ids {
		if !id.IsAir() {
			out = append(out, id)
		}
	}
	return out
}

// Random равномерно выбирает один из не-воздушных блоков.
// Используется только для тестового и демонстрационного заполнения.
func Random(rng *rand.Rand) BlockID {
	kinds := Placeable()
	return kinds[rng.Intn(len(kinds))]
}
