package normalize

import (
	"sort"
	"strings"
)

// ingredientEquivalences groups synonymous ingredient spellings across
// French and English. Every member of a group matches every other member.
var ingredientEquivalences = [][]string{
	{"pois chiches", "chickpeas", "garbanzo", "pois chiche"},
	{"tahini", "tahine", "tahin", "crème de sésame", "sesame paste"},
	{"citron", "lemon", "jus de citron", "lemon juice"},
	{"ail", "garlic", "gousse d'ail", "garlic clove"},
	{"aubergine", "eggplant"},
	{"yaourt", "yogurt", "yoghurt", "laban"},
	{"persil", "parsley"},
	{"boulgour", "bulgur", "bulghur"},
	{"tomate", "tomato", "tomates", "tomatoes"},
	{"oignon", "onion", "oignons", "onions"},
	{"huile d'olive", "olive oil", "huile olive"},
	{"viande", "meat", "viande hachée", "ground meat", "minced meat"},
	{"poulet", "chicken"},
	{"agneau", "lamb"},
	{"riz", "rice"},
	{"fèves", "fava beans", "broad beans", "feves"},
	{"haricots verts", "green beans"},
	{"haricots blancs", "white beans"},
	{"sumac", "sumaq"},
	{"grenade", "pomegranate", "mélasse de grenade", "pomegranate molasses"},
	{"menthe", "mint"},
	{"concombre", "cucumber"},
	{"courgette", "zucchini"},
	{"pomme de terre", "potato", "potatoes"},
	{"épinards", "spinach"},
	{"fromage", "cheese"},
	{"pain", "bread"},
	{"noix", "nuts", "walnuts"},
	{"pignons", "pine nuts", "pignons de pin"},
	{"pistache", "pistachio", "pistaches", "pistachios"},
	{"dattes", "dates", "datte", "date"},
	{"semoule", "semolina"},
	{"farine", "flour"},
	{"sucre", "sugar"},
	{"lait", "milk"},
	{"crème", "cream"},
	{"cardamome", "cardamom"},
	{"cannelle", "cinnamon"},
	{"poivron rouge", "red pepper", "red bell pepper"},
	{"piment", "chili", "hot pepper"},
	{"gombo", "okra", "bamia"},
	{"feuilles de vigne", "vine leaves", "grape leaves"},
	{"chou", "cabbage"},
	{"roquette", "arugula", "rocket"},
	{"pissenlit", "dandelion greens"},
	{"chou-fleur", "cauliflower"},
	{"poisson", "fish"},
	{"foie", "liver"},
	{"freekeh", "frikeh", "farik"},
	{"eau de rose", "rose water"},
	{"eau de fleur d'oranger", "orange blossom water"},
	{"sésame", "sesame"},
	{"lentilles", "lentils", "lentille"},
}

// IngredientTable maps ingredient spellings to equivalence classes.
// Built once; safe for concurrent reads.
type IngredientTable struct {
	groups map[string][]string
	// keys holds group keys sorted, so substring fallback scans in a fixed
	// order and always picks the same group.
	keys []string
}

// NewIngredientTable builds the equivalence table from the built-in groups.
func NewIngredientTable() *IngredientTable {
	t := &IngredientTable{groups: make(map[string][]string)}
	for _, group := range ingredientEquivalences {
		normalized := make([]string, 0, len(group))
		seen := make(map[string]struct{}, len(group))
		for _, ing := range group {
			n := Text(ing)
			if _, dup := seen[n]; !dup {
				seen[n] = struct{}{}
				normalized = append(normalized, n)
			}
		}
		for _, n := range normalized {
			t.groups[n] = normalized
		}
	}
	t.keys = make([]string, 0, len(t.groups))
	for k := range t.groups {
		t.keys = append(t.keys, k)
	}
	sort.Strings(t.keys)
	return t
}

// Equivalents returns all spellings equivalent to the given ingredient,
// including the normalized input itself. Unknown ingredients map to themselves.
func (t *IngredientTable) Equivalents(ingredient string) []string {
	n := Text(ingredient)
	if group, ok := t.groups[n]; ok {
		return group
	}
	// An ingredient inside a longer phrase still matches its group.
	for _, key := range t.keys {
		if strings.Contains(key, n) || strings.Contains(n, key) {
			return t.groups[key]
		}
	}
	return []string{n}
}

// Expand normalizes a list of ingredients and expands each through its
// equivalence class, deduplicated.
func (t *IngredientTable) Expand(ingredients []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(ingredients)*2)
	for _, ing := range ingredients {
		for _, eq := range t.Equivalents(ing) {
			if _, dup := seen[eq]; !dup {
				seen[eq] = struct{}{}
				out = append(out, eq)
			}
		}
	}
	return out
}

// MatchRatio counts how many query ingredients appear (via equivalence) among
// the document's ingredients and returns the fraction of the query satisfied.
func (t *IngredientTable) MatchRatio(queryIngredients, docIngredients []string) (int, float64) {
	if len(queryIngredients) == 0 {
		return 0, 0
	}
	docNorm := t.Expand(docIngredients)
	matches := 0
	for _, q := range queryIngredients {
		qEq := t.Equivalents(q)
		found := false
		for _, qe := range qEq {
			for _, d := range docNorm {
				if strings.Contains(d, qe) || strings.Contains(qe, d) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if found {
			matches++
		}
	}
	return matches, float64(matches) / float64(len(queryIngredients))
}
