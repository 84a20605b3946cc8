package models

// Language is the detected query language class.
type Language string

const (
	LangFrench    Language = "fr"
	LangNonFrench Language = "non_fr"
)

// Intent is the coarse classification of a user query.
type Intent string

const (
	IntentFood      Intent = "food_request"
	IntentGreeting  Intent = "greeting"
	IntentFarewell  Intent = "farewell"
	IntentAboutBot  Intent = "about_bot"
	IntentInjection Intent = "anti_injection"
	IntentOffTopic  Intent = "off_topic"
)

// NeedType is the structured query's response requirement, derived from intent and slots.
type NeedType string

const (
	NeedRecipeByName        NeedType = "recipe_by_name"
	NeedRecipeByIngredients NeedType = "recipe_by_ingredients"
	NeedSuggestions         NeedType = "suggestions"
	NeedGreeting            NeedType = "greeting"
	NeedAboutBot            NeedType = "about_bot"
	NeedOffTopic            NeedType = "off_topic"
)

// Slots holds the entities extracted from a query.
type Slots struct {
	Dishes      []string `json:"dishes,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Methods     []string `json:"methods,omitempty"`
	Occasions   []string `json:"occasions,omitempty"`
}

// Classification is the output of the query classifier.
type Classification struct {
	Intent     Intent   `json:"intent"`
	Language   Language `json:"language"`
	Confidence float64  `json:"confidence"`
	Slots      Slots    `json:"slots"`
}

// QueryPlan is the structured query produced by the planner.
// Invariants: NeedRecipeByName implies PrimaryDish != "";
// NeedRecipeByIngredients implies len(Ingredients) > 0.
type QueryPlan struct {
	NeedType       NeedType `json:"need_type"`
	PrimaryDish    string   `json:"primary_dish,omitempty"`
	Ingredients    []string `json:"ingredients,omitempty"`
	Constraints    []string `json:"constraints,omitempty"`
	Language       Language `json:"language"`
	RetrievalQuery string   `json:"retrieval_query"`
	LinkQuery      string   `json:"link_query,omitempty"`
	Original       string   `json:"original"`
}

// NeedsRetrieval reports whether the plan calls for a content lookup at all.
func (p *QueryPlan) NeedsRetrieval() bool {
	switch p.NeedType {
	case NeedGreeting, NeedAboutBot, NeedOffTopic:
		return false
	}
	return true
}
