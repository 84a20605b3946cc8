package normalize

import (
	"sort"
	"strings"
)

// DishCategory classifies a known dish for template and emoji selection.
type DishCategory string

const (
	CategoryMezzeCold  DishCategory = "mezze_cold"
	CategoryMezzeHot   DishCategory = "mezze_hot"
	CategoryMainCourse DishCategory = "main_course"
	CategorySalad      DishCategory = "salad"
	CategorySoup       DishCategory = "soup"
	CategoryDessert    DishCategory = "dessert"
	CategoryDrink      DishCategory = "drink"
	CategoryBread      DishCategory = "bread"
)

// Dish is a node in the culinary knowledge graph.
type Dish struct {
	Name           string
	Normalized     string
	Category       DishCategory
	KeyIngredients []string
	Variations     []string
	IsLebanese     bool
}

// CulinaryGraph holds known dishes keyed by normalized name, including
// spelling variations. Built once; safe for concurrent reads.
type CulinaryGraph struct {
	dishes map[string]*Dish
}

// NewCulinaryGraph builds the built-in Lebanese/Mediterranean dish graph.
func NewCulinaryGraph() *CulinaryGraph {
	g := &CulinaryGraph{dishes: make(map[string]*Dish)}

	// Cold mezzes
	g.add("hummus", CategoryMezzeCold, []string{"pois chiches", "tahini", "citron"}, []string{"houmous", "hommos"}, true)
	g.add("moutabbal", CategoryMezzeCold, []string{"aubergine", "tahini", "citron"}, []string{"mutabbal", "baba ganoush"}, true)
	g.add("labneh", CategoryMezzeCold, []string{"yaourt", "ail"}, []string{"labne", "labné"}, true)
	g.add("tabbouleh", CategoryMezzeCold, []string{"persil", "boulgour", "tomate"}, []string{"taboulé", "taboule"}, true)
	g.add("fattoush", CategorySalad, []string{"salade", "pain", "sumac"}, nil, true)
	g.add("warak enab", CategoryMezzeCold, []string{"feuilles de vigne", "riz"}, []string{"feuilles de vigne farcies"}, true)

	// Hot mezzes
	g.add("kebbeh", CategoryMezzeHot, []string{"viande", "boulgour"}, []string{"kibbeh", "kibbe"}, true)
	g.add("sambousek", CategoryMezzeHot, []string{"pâte", "viande", "fromage"}, nil, true)
	g.add("falafel", CategoryMezzeHot, []string{"pois chiches", "fèves"}, nil, true)
	g.add("fatayer", CategoryMezzeHot, []string{"pâte", "épinards", "viande"}, nil, true)
	g.add("makanek", CategoryMezzeHot, []string{"saucisse", "citron", "grenade"}, nil, true)

	// Main courses
	g.add("kafta", CategoryMainCourse, []string{"viande hachée", "persil", "oignon"}, []string{"kofta", "kefta"}, true)
	g.add("shawarma", CategoryMainCourse, []string{"viande", "épices"}, []string{"chawarma"}, true)
	g.add("moghrabieh", CategoryMainCourse, []string{"perles", "poulet", "pois chiches"}, []string{"maftoul"}, true)
	g.add("sayadieh", CategoryMainCourse, []string{"poisson", "riz", "oignon"}, nil, true)
	g.add("tajine", CategoryMainCourse, []string{"viande", "légumes"}, nil, false)

	// Desserts
	g.add("baklava", CategoryDessert, []string{"pâte filo", "noix", "sirop"}, nil, true)
	g.add("knafeh", CategoryDessert, []string{"kadaif", "fromage", "sirop"}, []string{"kunefe", "kenefeh"}, true)
	g.add("halva", CategoryDessert, []string{"tahini", "sucre"}, []string{"halawa"}, true)
	g.add("maamoul", CategoryDessert, []string{"semoule", "dattes", "noix"}, nil, true)

	// Soups
	g.add("soupe de lentilles", CategorySoup, []string{"lentilles", "citron"}, []string{"chorba adas"}, true)

	return g
}

func (g *CulinaryGraph) add(name string, cat DishCategory, keyIngredients, variations []string, lebanese bool) {
	d := &Dish{
		Name:           name,
		Normalized:     RecipeName(name),
		Category:       cat,
		KeyIngredients: keyIngredients,
		Variations:     variations,
		IsLebanese:     lebanese,
	}
	g.dishes[d.Normalized] = d
	for _, v := range variations {
		nv := RecipeName(v)
		if _, exists := g.dishes[nv]; !exists {
			g.dishes[nv] = d
		}
	}
}

// FindDish looks up a dish by name or variation, with substring fallback so a
// dish mentioned inside a full question still resolves.
func (g *CulinaryGraph) FindDish(query string) *Dish {
	normalized := RecipeName(query)
	if normalized == "" {
		return nil
	}
	if d, ok := g.dishes[normalized]; ok {
		return d
	}
	// Substring fallback over sorted keys so ambiguous queries resolve the same
	// way on every run.
	var bestKey string
	for key := range g.dishes {
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			if bestKey == "" || key < bestKey {
				bestKey = key
			}
		}
	}
	if bestKey != "" {
		return g.dishes[bestKey]
	}
	return nil
}

// DishesByIngredient returns names of dishes whose key ingredients include
// the given ingredient. Sorted so callers that take the first match stay
// deterministic across runs.
func (g *CulinaryGraph) DishesByIngredient(ingredient string) []string {
	n := Text(ingredient)
	seen := make(map[string]struct{})
	var out []string
	for _, d := range g.dishes {
		if _, dup := seen[d.Name]; dup {
			continue
		}
		for _, ki := range d.KeyIngredients {
			if strings.Contains(Text(ki), n) {
				seen[d.Name] = struct{}{}
				out = append(out, d.Name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Category returns the category for a dish name, or "" when unknown.
func (g *CulinaryGraph) Category(dishName string) DishCategory {
	if d := g.FindDish(dishName); d != nil {
		return d.Category
	}
	return ""
}

// Len returns the number of distinct graph entries (variations included).
func (g *CulinaryGraph) Len() int { return len(g.dishes) }
