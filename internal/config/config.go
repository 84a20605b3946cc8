// Package config provides configuration loading and structs for the Sahtein server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Link      LinkConfig      `yaml:"link"`
	Guard     GuardConfig     `yaml:"guard"`
	Generator GeneratorConfig `yaml:"generator"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CorpusConfig holds paths to the two corpus files.
type CorpusConfig struct {
	ArticlesPath string `yaml:"articles_path"`
	RecipesPath  string `yaml:"recipes_path"`
	// Watch rebuilds the indexes when either corpus file changes on disk.
	Watch bool `yaml:"watch"`
}

// StorageConfig holds the audit database path. Empty disables auditing.
type StorageConfig struct {
	AuditDBPath string `yaml:"audit_db_path"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK          int `yaml:"top_k"`
	RerankTopK    int `yaml:"rerank_top_k"`
	MaxMessageLen int `yaml:"max_message_len"`
}

// RankingConfig holds reranker weights and source-priority multipliers.
type RankingConfig struct {
	// Source priority under recipe_by_name: external boosted, structured penalized.
	NameExternalBoost     float64 `yaml:"name_external_boost"`
	NameStructuredPenalty float64 `yaml:"name_structured_penalty"`
	// Source priority under recipe_by_ingredients: the inverse.
	IngredientStructuredBoost float64 `yaml:"ingredient_structured_boost"`
	IngredientExternalPenalty float64 `yaml:"ingredient_external_penalty"`

	DishMatchBoost   float64 `yaml:"dish_match_boost"`
	IngredientWeight float64 `yaml:"ingredient_weight"`
	ConstraintWeight float64 `yaml:"constraint_weight"`
	RegionalBoost    float64 `yaml:"regional_boost"`
	PopularityWeight float64 `yaml:"popularity_weight"`
}

// LinkConfig holds link resolution thresholds.
type LinkConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	SuggestedCount      int     `yaml:"suggested_count"`
	AllowedDomain       string  `yaml:"allowed_domain"`
}

// GuardConfig holds content guard limits.
type GuardConfig struct {
	MaxWords       int `yaml:"max_words"`
	MaxWordsRecipe int `yaml:"max_words_recipe"`
	MaxEmojis      int `yaml:"max_emojis"`
}

// GeneratorConfig holds prose-generation settings.
type GeneratorConfig struct {
	Provider  string `yaml:"provider"` // "mock" or "ollama"
	Model     string `yaml:"model"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.ArticlesPath = expandPath(cfg.Corpus.ArticlesPath, configDir)
	cfg.Corpus.RecipesPath = expandPath(cfg.Corpus.RecipesPath, configDir)
	if cfg.Storage.AuditDBPath != "" {
		cfg.Storage.AuditDBPath = expandPath(cfg.Storage.AuditDBPath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
