package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type DuplicatePolicy string

const (
	DuplicateSupersede DuplicatePolicy = "supersede"
	DuplicateReject    DuplicatePolicy = "reject"

	BackendOpenAI = "openai"
	BackendGemini = "gemini"

	IndexBackendLocal  = "local"
	IndexBackendQdrant = "qdrant"
)

// Settings is the runtime configuration. Values come from the defaults below,
// then an optional YAML file named by RAG_CONFIG_FILE, then the environment.
type Settings struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`

	LLMBackend     string  `yaml:"llm_backend"`
	LLMBaseURL     string  `yaml:"llm_base_url"`
	LLMAPIKey      string  `yaml:"llm_api_key"`
	LLMModel       string  `yaml:"llm_model"`
	LLMTemperature float64 `yaml:"llm_temperature"`

	EmbeddingBackend string `yaml:"embedding_backend"`
	EmbeddingModel   string `yaml:"embedding_model"`
	GoogleAPIKey     string `yaml:"google_api_key"`

	TTSBaseURL  string `yaml:"tts_base_url"`
	TTSAPIKey   string `yaml:"tts_api_key"`
	TTSModel    string `yaml:"tts_model"`
	TTSVoice    string `yaml:"tts_voice"`
	TTSLanguage string `yaml:"tts_language"`

	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	RetrievalK          int     `yaml:"retrieval_k"`
	RetrievalScoreFloor float64 `yaml:"retrieval_score_floor"`

	MaxFileSizeMB     int      `yaml:"max_file_size_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	UploadDir         string   `yaml:"upload_dir"`

	IndexBackend    string          `yaml:"index_backend"`
	DBStoragePrefix string          `yaml:"db_storage_prefix"`
	QdrantHost      string          `yaml:"qdrant_host"`
	QdrantPort      int             `yaml:"qdrant_port"`
	DuplicatePolicy DuplicatePolicy `yaml:"duplicate_policy"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	AuthToken string `yaml:"auth_token"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

func Defaults() Settings {
	return Settings{
		Host:                "127.0.0.1",
		Port:                8000,
		Env:                 "development",
		LLMBackend:          BackendOpenAI,
		LLMBaseURL:          "http://localhost:11434/v1",
		LLMAPIKey:           "ollama",
		LLMModel:            "llama3",
		LLMTemperature:      0,
		EmbeddingBackend:    BackendOpenAI,
		EmbeddingModel:      "llama3",
		TTSModel:            "tts-1",
		TTSVoice:            "alloy",
		TTSLanguage:         "en",
		ChunkSize:           1000,
		ChunkOverlap:        200,
		RetrievalK:          5,
		RetrievalScoreFloor: 0,
		MaxFileSizeMB:       50,
		AllowedExtensions:   []string{"pdf"},
		UploadDir:           "uploads",
		IndexBackend:        IndexBackendLocal,
		DBStoragePrefix:     "db_storage",
		QdrantPort:          QdrantGrpcPort,
		DuplicatePolicy:     DuplicateSupersede,
		RedisAddr:           "127.0.0.1:6379",
		LogLevel:            "INFO",
	}
}

// Load builds Settings from defaults, the optional YAML file and the environment.
func Load() (Settings, error) {
	s := Defaults()

	if path := os.Getenv("RAG_CONFIG_FILE"); path != "" {
		if err := s.mergeFile(path); err != nil {
			return s, err
		}
	}
	s.applyEnv()

	if s.TTSBaseURL == "" {
		s.TTSBaseURL = s.LLMBaseURL
	}
	if s.TTSAPIKey == "" {
		s.TTSAPIKey = s.LLMAPIKey
	}
	return s, s.Validate()
}

func (s *Settings) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (s *Settings) applyEnv() {
	s.Host = getEnv("HOST", s.Host)
	s.Port = getEnvInt("PORT", s.Port)
	s.Env = getEnv("APP_ENV", s.Env)

	s.LLMBackend = strings.ToLower(getEnv("LLM_BACKEND", s.LLMBackend))
	s.LLMBaseURL = getEnv("LLM_BASE_URL", s.LLMBaseURL)
	s.LLMAPIKey = getEnv("LLM_API_KEY", s.LLMAPIKey)
	s.LLMModel = getEnv("LLM_MODEL", s.LLMModel)
	s.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", s.LLMTemperature)

	s.EmbeddingBackend = strings.ToLower(getEnv("EMBEDDING_BACKEND", s.EmbeddingBackend))
	s.EmbeddingModel = getEnv("EMBEDDING_MODEL", s.EmbeddingModel)
	s.GoogleAPIKey = getEnv("GOOGLE_API_KEY", s.GoogleAPIKey)

	s.TTSBaseURL = getEnv("TTS_BASE_URL", s.TTSBaseURL)
	s.TTSAPIKey = getEnv("TTS_API_KEY", s.TTSAPIKey)
	s.TTSModel = getEnv("TTS_MODEL", s.TTSModel)
	s.TTSVoice = getEnv("TTS_VOICE", s.TTSVoice)
	s.TTSLanguage = getEnv("TTS_LANGUAGE", s.TTSLanguage)

	s.ChunkSize = getEnvInt("CHUNK_SIZE", s.ChunkSize)
	s.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", s.ChunkOverlap)
	s.RetrievalK = getEnvInt("RETRIEVAL_K", s.RetrievalK)
	s.RetrievalScoreFloor = getEnvFloat("RETRIEVAL_SCORE_FLOOR", s.RetrievalScoreFloor)

	s.MaxFileSizeMB = getEnvInt("MAX_FILE_SIZE_MB", s.MaxFileSizeMB)
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		s.AllowedExtensions = splitList(v)
	}
	s.UploadDir = getEnv("UPLOAD_DIR", s.UploadDir)

	s.IndexBackend = strings.ToLower(getEnv("INDEX_BACKEND", s.IndexBackend))
	s.DBStoragePrefix = getEnv("DB_STORAGE_PREFIX", s.DBStoragePrefix)
	s.QdrantHost = getEnv("QDRANT_HOST", s.QdrantHost)
	s.QdrantPort = getEnvInt("QDRANT_PORT", s.QdrantPort)
	s.DuplicatePolicy = DuplicatePolicy(strings.ToLower(getEnv("DUPLICATE_POLICY", string(s.DuplicatePolicy))))

	s.RedisAddr = getEnv("REDIS_ADDR", s.RedisAddr)
	s.RedisPassword = getEnv("REDIS_PASSWORD", s.RedisPassword)
	s.AuthToken = getEnv("API_AUTH_TOKEN", s.AuthToken)

	s.LogLevel = getEnv("LOG_LEVEL", s.LogLevel)
	s.LogFile = getEnv("LOG_FILE", s.LogFile)
}

func (s Settings) Validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", s.ChunkSize)
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", s.ChunkOverlap)
	}
	if s.RetrievalK <= 0 {
		return fmt.Errorf("RETRIEVAL_K must be positive, got %d", s.RetrievalK)
	}
	if s.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive, got %d", s.MaxFileSizeMB)
	}
	switch s.DuplicatePolicy {
	case DuplicateSupersede, DuplicateReject:
	default:
		return fmt.Errorf("DUPLICATE_POLICY must be %q or %q, got %q", DuplicateSupersede, DuplicateReject, s.DuplicatePolicy)
	}
	switch s.IndexBackend {
	case IndexBackendLocal, IndexBackendQdrant:
	default:
		return fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q", IndexBackendLocal, IndexBackendQdrant, s.IndexBackend)
	}
	return nil
}

func (s Settings) ListenAddr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

func (s Settings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) << 20
}

func (s Settings) IsProd() bool {
	return strings.EqualFold(s.Env, "production")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(item), "."))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
