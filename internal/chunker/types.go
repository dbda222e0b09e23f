package chunker

import (
	"errors"
	"fmt"

	"docqa/internal/loader"
)

// ErrInvalidConfig возвращается, если размер окна или overlap заданы неверно
var ErrInvalidConfig = errors.New("invalid chunker config")

// Chunk представляет единицу текста для векторизации
type Chunk struct {
	ID       string            // Детерминированный идентификатор (hash)
	Text     string            // Текст чанка
	Source   string            // Имя исходного файла
	Section  string            // Заголовок секции, если есть
	Segment  int               // Порядковый номер сегмента в документе
	Index    int               // Номер окна внутри сегмента
	Start    int               // Смещение начала окна в рунах
	End      int               // Смещение конца окна в рунах (не включая)
	Metadata map[string]string // Метаданные для индекса
}

// Chunker - интерфейс для всех типов chunker'ов
type Chunker interface {
	// Chunk разбивает сегменты документа на чанки
	Chunk(segments []loader.Segment) ([]Chunk, error)

	// Name возвращает название chunker'а для логирования
	Name() string
}

// Config содержит общие параметры для chunker'ов
type Config struct {
	MaxChunkSize int // Максимальный размер чанка в символах
	Overlap      int // Размер overlap между чанками
}

// DefaultConfig - 1000 символов и 20 символов overlap
func DefaultConfig() Config {
	return Config{MaxChunkSize: 1000, Overlap: 20}
}

func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.MaxChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, c.MaxChunkSize, c.Overlap)
	}
	return nil
}

// step - шаг окна
func (c Config) step() int {
	return c.MaxChunkSize - c.Overlap
}
