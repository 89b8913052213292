package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Компоненты сервера с собственными логгерами и файлами логов
const (
	ComponentApp    = "app"
	ComponentWorld  = "world"
	ComponentMesh   = "mesh"
	ComponentEngine = "engine"
	ComponentAPI    = "api"
)

var knownComponents = map[string]bool{
	ComponentApp:    true,
	ComponentWorld:  true,
	ComponentMesh:   true,
	ComponentEngine: true,
	ComponentAPI:    true,
}

// LoggerManager раздаёт логгеры компонентов и хранит переопределения уровней консоли
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	levels  map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// NewLoggerManager создаёт пустой менеджер
func NewLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		levels:  make(map[string]LogLevel),
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager()
	})
	return globalManager
}

// Logger возвращает логгер компонента, создавая его при первом обращении.
// Если файл логов открыть не удалось, компонент пишет только в консоль.
func (lm *LoggerManager) Logger(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger
	}

	logger, err := NewLogger(component)
	if err != nil {
		logger = NewWriterLogger(component, defaultLogger.consoleLogger.Writer(), currentOptions().ConsoleLevel)
		logger.Warn("⚠️ файл логов недоступен, только консоль: %v", err)
	}
	if level, ok := lm.levels[component]; ok {
		logger.minConsoleLevel = level
	}
	lm.loggers[component] = logger
	return logger
}

// SetLevels переопределяет уровень консоли для компонентов ("mesh" -> "debug").
// Применяется к уже созданным логгерам и к тем, что будут созданы позже.
func (lm *LoggerManager) SetLevels(levels map[string]string) error {
	parsed := make(map[string]LogLevel, len(levels))
	for component, s := range levels {
		if !knownComponents[component] {
			return fmt.Errorf("неизвестный компонент логирования %q (известны: %v)", component, Components())
		}
		level, err := ParseLevel(s)
		if err != nil {
			return fmt.Errorf("компонент %s: %w", component, err)
		}
		parsed[component] = level
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	for component, level := range parsed {
		lm.levels[component] = level
		if logger, ok := lm.loggers[component]; ok {
			logger.mu.Lock()
			logger.minConsoleLevel = level
			logger.mu.Unlock()
		}
	}
	return nil
}

// CloseAll закрывает файлы логов всех компонентов и забывает логгеры.
// Уже выданные логгеры продолжают писать в консоль.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("закрытие логгера %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// Components возвращает имена компонентов в алфавитном порядке
func Components() []string {
	names := make([]string, 0, len(knownComponents))
	for name := range knownComponents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().Logger(component)
}

func GetAppLogger() *Logger    { return GetComponentLogger(ComponentApp) }
func GetWorldLogger() *Logger  { return GetComponentLogger(ComponentWorld) }
func GetMeshLogger() *Logger   { return GetComponentLogger(ComponentMesh) }
func GetEngineLogger() *Logger { return GetComponentLogger(ComponentEngine) }
func GetAPILogger() *Logger    { return GetComponentLogger(ComponentAPI) }
