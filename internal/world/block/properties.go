package block

// Properties описывает статические свойства вида блока
type Properties struct {
	Name        string // Имя блока (нижний регистр, используется в API и конфиге)
	Air         bool   // Не занимает места и никогда не рисуется
	Transparent bool   // Не закрывает соседние грани (листва, стекло)
}

// Регистрируем все виды блоков при импорте пакета
func init() {
	Register(AirBlockID, Properties{Name: "air", Air: true, Transparent: true})
	Register(DirtBlockID, Properties{Name: "dirt"})
	Register(CobblestoneBlockID, Properties{Name: "cobblestone"})
	Register(ObsidianBlockID, Properties{Name: "obsidian"})
	Register(GrassBlockID, Properties{Name: "grass_block"})
	Register(OakLogBlockID, Properties{Name: "oak_log"})
	Register(OakLeavesBlockID, Properties{Name: "oak_leaves", Transparent: true})
	Register(DebugBlockID, Properties{Name: "debug"})
	Register(Debug2BlockID, Properties{Name: "debug2"})
}
