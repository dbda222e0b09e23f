package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
)

// ErrInvalid помечает любую ошибку конфигурации: её нельзя исправить в рантайме.
var ErrInvalid = errors.New("invalid configuration")

// Провайдеры и бэкенды, которые понимает приложение
const (
	ProviderCohere = "cohere"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	BackendChromem  = "chromem"
	BackendQdrant   = "qdrant"
	BackendPGVector = "pgvector"
)

type Config struct {
	// Embedding / LLM
	LLMAPIKey      string  `env:"LLM_API_KEY"`
	EmbedProvider  string  `env:"EMBED_PROVIDER" envDefault:"cohere"`
	EmbedModel     string  `env:"EMBED_MODEL" envDefault:"embed-english-v3.0"`
	EmbedDimension int     `env:"EMBED_DIMENSION" envDefault:"1024"`
	LLMProvider    string  `env:"LLM_PROVIDER" envDefault:"cohere"`
	LLMModel       string  `env:"LLM_MODEL" envDefault:"command-r-08-2024"`
	LLMBaseURL     string  `env:"LLM_BASE_URL"`
	Temperature    float32 `env:"LLM_TEMPERATURE" envDefault:"0.3"`
	MaxTokens      int     `env:"LLM_MAX_TOKENS" envDefault:"512"`
	OllamaURL      string  `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`

	// Vector index
	IndexBackend string `env:"INDEX_BACKEND" envDefault:"chromem"`
	IndexName    string `env:"INDEX_NAME,required"`
	IndexRegion  string `env:"INDEX_REGION,required"`
	IndexCloud   string `env:"INDEX_CLOUD" envDefault:"aws"`
	IndexMetric  string `env:"INDEX_METRIC" envDefault:"cosine"`
	IndexAPIKey  string `env:"INDEX_API_KEY"`
	QdrantURL    string `env:"QDRANT_URL" envDefault:"http://localhost:6334"`
	PGDSN        string `env:"PG_DSN"`

	// Storage layout
	DataDir string `env:"DATA_DIR" envDefault:"./data"`
	WorkDir string `env:"WORK_DIR" envDefault:"./work"`

	// Pipeline
	ChunkSize        int  `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap     int  `env:"CHUNK_OVERLAP" envDefault:"20"`
	TopK             int  `env:"TOP_K" envDefault:"4"`
	CondenseQuestion bool `env:"CONDENSE_QUESTION" envDefault:"false"`

	// Ambient
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Init заполняет cfg из окружения
func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// Load парсит окружение и проверяет результат. Любая ошибка оборачивает ErrInvalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := Init(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.EmbedProvider {
	case ProviderCohere, ProviderOpenAI:
		if c.LLMAPIKey == "" {
			errs = append(errs, fmt.Errorf("LLM_API_KEY is required for embed provider %q", c.EmbedProvider))
		}
	case ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown EMBED_PROVIDER %q", c.EmbedProvider))
	}

	switch c.LLMProvider {
	case ProviderCohere, ProviderOpenAI, ProviderGemini:
		if c.LLMAPIKey == "" {
			errs = append(errs, fmt.Errorf("LLM_API_KEY is required for llm provider %q", c.LLMProvider))
		}
	case ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.IndexBackend {
	case BackendChromem:
	case BackendQdrant:
		if c.IndexAPIKey == "" {
			errs = append(errs, errors.New("INDEX_API_KEY is required for the qdrant backend"))
		}
	case BackendPGVector:
		if c.PGDSN == "" {
			errs = append(errs, errors.New("PG_DSN is required for the pgvector backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown INDEX_BACKEND %q", c.IndexBackend))
	}

	if strings.TrimSpace(c.IndexName) == "" {
		errs = append(errs, errors.New("INDEX_NAME must not be blank"))
	}
	if strings.TrimSpace(c.IndexRegion) == "" {
		errs = append(errs, errors.New("INDEX_REGION must not be blank"))
	}
	if c.IndexMetric != "cosine" {
		errs = append(errs, fmt.Errorf("INDEX_METRIC %q is not supported, only cosine", c.IndexMetric))
	}
	if c.EmbedDimension <= 0 {
		errs = append(errs, fmt.Errorf("EMBED_DIMENSION must be positive, got %d", c.EmbedDimension))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	if err := checkWorkDir(c.WorkDir, c.DataDir); err != nil {
		errs = append(errs, err)
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("TOP_K must be positive, got %d", c.TopK))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// checkWorkDir: каталог загрузок очищается перед каждой загрузкой, поэтому он
// не может совпадать с DATA_DIR или лежать внутри него (и наоборот).
func checkWorkDir(workDir, dataDir string) error {
	if strings.TrimSpace(workDir) == "" {
		return errors.New("WORK_DIR must not be blank")
	}
	if strings.TrimSpace(dataDir) == "" {
		return nil
	}

	work, err := filepath.Abs(workDir)
	if err != nil {
		return fmt.Errorf("WORK_DIR %q: %w", workDir, err)
	}
	data, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("DATA_DIR %q: %w", dataDir, err)
	}

	if within(work, data) || within(data, work) {
		return fmt.Errorf("WORK_DIR %q and DATA_DIR %q must not overlap: the work dir is wiped on every upload", workDir, dataDir)
	}
	return nil
}

// within reports whether path is base or lies under it. Both must be absolute.
func within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
