package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Corpus.ArticlesPath == "" {
		cfg.Corpus.ArticlesPath = "/usr/local/var/sahtein/data/articles.json"
	}
	if cfg.Corpus.RecipesPath == "" {
		cfg.Corpus.RecipesPath = "/usr/local/var/sahtein/data/recipes.json"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 20
	}
	if cfg.Retrieval.RerankTopK == 0 {
		cfg.Retrieval.RerankTopK = 5
	}
	if cfg.Retrieval.MaxMessageLen == 0 {
		cfg.Retrieval.MaxMessageLen = 500
	}
	if cfg.Ranking.NameExternalBoost == 0 {
		cfg.Ranking.NameExternalBoost = 1.3
	}
	if cfg.Ranking.NameStructuredPenalty == 0 {
		cfg.Ranking.NameStructuredPenalty = 0.8
	}
	if cfg.Ranking.IngredientStructuredBoost == 0 {
		cfg.Ranking.IngredientStructuredBoost = 1.3
	}
	if cfg.Ranking.IngredientExternalPenalty == 0 {
		cfg.Ranking.IngredientExternalPenalty = 0.8
	}
	if cfg.Ranking.DishMatchBoost == 0 {
		cfg.Ranking.DishMatchBoost = 1.3
	}
	if cfg.Ranking.IngredientWeight == 0 {
		cfg.Ranking.IngredientWeight = 0.2
	}
	if cfg.Ranking.ConstraintWeight == 0 {
		cfg.Ranking.ConstraintWeight = 0.15
	}
	if cfg.Ranking.RegionalBoost == 0 {
		cfg.Ranking.RegionalBoost = 1.1
	}
	if cfg.Ranking.PopularityWeight == 0 {
		cfg.Ranking.PopularityWeight = 0.1
	}
	if cfg.Link.SimilarityThreshold == 0 {
		cfg.Link.SimilarityThreshold = 0.75
	}
	if cfg.Link.SuggestedCount == 0 {
		cfg.Link.SuggestedCount = 3
	}
	if cfg.Link.AllowedDomain == "" {
		cfg.Link.AllowedDomain = "https://www.lorientlejour.com"
	}
	if cfg.Guard.MaxWords == 0 {
		cfg.Guard.MaxWords = 150
	}
	if cfg.Guard.MaxWordsRecipe == 0 {
		cfg.Guard.MaxWordsRecipe = 500
	}
	if cfg.Guard.MaxEmojis == 0 {
		cfg.Guard.MaxEmojis = 3
	}
	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = "mock"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "mistral"
	}
	if cfg.Generator.TimeoutMS == 0 {
		cfg.Generator.TimeoutMS = 4000
	}
}
