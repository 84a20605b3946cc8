package models

// ScenarioID identifies one of the eight fixed editorial scenarios.
type ScenarioID int

const (
	ScenarioExternalRecipe     ScenarioID = 1 // external article available, storytelling only
	ScenarioStructuredRecipe   ScenarioID = 2 // structured recipe with external suggestion
	ScenarioNoMatchFallback    ScenarioID = 3
	ScenarioGreeting           ScenarioID = 4
	ScenarioAboutBot           ScenarioID = 5
	ScenarioOffTopicRedirect   ScenarioID = 6
	ScenarioNonFrench          ScenarioID = 7
	ScenarioIngredientSuggests ScenarioID = 8
)

// Scenario is a fixed editorial scenario definition. The table is static
// configuration, never request state.
type Scenario struct {
	ID             ScenarioID `json:"id"`
	Name           string     `json:"name"`
	LinkRequired   bool       `json:"link_required"`
	ShowFullRecipe bool       `json:"show_full_recipe"`
	UseSource      string     `json:"use_source"` // "external", "structured", "mixed", "none"
}
