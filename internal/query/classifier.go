// Package query turns raw user messages into classifications and retrieval plans.
// Classification is rule-based and deterministic: the same message always yields
// the same intent, language, and slots.
package query

import (
	"regexp"
	"strings"

	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(bonjour|salut|hello|hi|hey|coucou)`),
	regexp.MustCompile(`^(bonsoir|bonne journée)`),
}

var farewellPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(au revoir|bye|adieu|à bientôt|merci et au revoir)`),
	regexp.MustCompile(`(au revoir|bye|adieu)$`),
}

var aboutPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(qui es-tu|qu'est-ce que tu es|tu es qui|c'est quoi)`),
	regexp.MustCompile(`(comment tu t'appelles|ton nom|qui êtes-vous)`),
	regexp.MustCompile(`(qu'est-ce que sahtein|c'est quoi sahtein)`),
	regexp.MustCompile(`(tu peux faire quoi|que peux-tu faire)`),
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(ignore|oublie|forget) (les |tes )?(instructions|directives|règles)`),
	regexp.MustCompile(`(tu es|you are) (maintenant|now) (un|a) (autre|different)`),
	regexp.MustCompile(`(répète|repeat|affiche|show) (ton|your) (prompt|system)`),
	regexp.MustCompile(`</s>|<\|im_end\|>|<\|endoftext\|>`),
}

var foodPatterns = []*regexp.Regexp{
	regexp.MustCompile(`recette`),
	regexp.MustCompile(`(comment|je veux) (faire|préparer|cuisiner)`),
	regexp.MustCompile(`(j'ai|j ai|avec) (du|de la|des|le|la|les) .*(que puis-je|quoi faire|idée)`),
	regexp.MustCompile(`(mezze|plat|dessert|soupe|salade)`),
	regexp.MustCompile(`(taboulé|taboule|hummus|houmous|kebbeh|kebbé|kafta|baklava)`),
}

var frenchWords = map[string]struct{}{
	"je": {}, "j'ai": {}, "tu": {}, "il": {}, "elle": {}, "nous": {}, "vous": {}, "ils": {}, "elles": {},
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "du": {}, "de": {},
	"est": {}, "sont": {}, "suis": {}, "sommes": {}, "êtes": {},
	"veux": {}, "voudrais": {}, "peux": {}, "pourrais": {}, "puis-je": {}, "puis": {},
	"recette": {}, "cuisine": {}, "plat": {}, "manger": {}, "faire": {}, "cuisiner": {},
	"bonjour": {}, "salut": {}, "merci": {}, "comment": {}, "pourquoi": {}, "que": {},
	"avec": {}, "pour": {}, "dans": {}, "sur": {}, "par": {},
}

var frenchContractions = []string{"j'ai", "j'", "d'", "l'", "qu'", "n'", "c'est", "s'", "m'", "t'"}

var frenchChars = []string{"é", "è", "ê", "à", "ç", "ù", "û", "ô", "î", "ï"}

var foodKeywords = []string{
	"recette", "cuisine", "plat", "manger", "cuire", "four",
	"ingrédient", "préparation", "cuisson",
}

// commonIngredients are scanned for in slot extraction. Order fixes the order
// of the extracted slot list.
var commonIngredients = []string{
	"poulet", "viande", "agneau", "boeuf", "poisson",
	"tomate", "oignon", "ail", "citron", "persil",
	"pois chiche", "lentille", "riz", "boulgour",
	"yaourt", "fromage", "tahini", "tahine", "huile d'olive",
	"aubergine", "courgette", "pomme de terre",
}

// methodPatterns maps a canonical cooking method to its trigger phrases.
var methodPatterns = []struct {
	method   string
	triggers []string
}{
	{"au four", []string{"au four", "grillé", "rôti"}},
	{"frit", []string{"frit", "friture"}},
	{"grillé", []string{"grillé", "barbecue", "bbq"}},
	{"cru", []string{"cru", "frais"}},
	{"salade", []string{"salade"}},
	{"soupe", []string{"soupe", "potage"}},
}

// occasionPatterns maps a canonical occasion to its trigger phrases.
var occasionPatterns = []struct {
	occasion string
	triggers []string
}{
	{"mezze", []string{"mezze", "apéritif", "entrée"}},
	{"plat principal", []string{"plat principal", "plat", "principal"}},
	{"dessert", []string{"dessert", "sucré"}},
	{"rapide", []string{"rapide", "vite", "express"}},
	{"végétarien", []string{"végétarien", "végé", "sans viande"}},
}

// Classifier detects intent, language, and slots from a user message.
type Classifier struct {
	graph *normalize.CulinaryGraph
}

// NewClassifier returns a classifier backed by the culinary graph.
func NewClassifier(graph *normalize.CulinaryGraph) *Classifier {
	return &Classifier{graph: graph}
}

// Classify analyzes a user message. It never fails: any message maps to
// exactly one intent and one language.
func (c *Classifier) Classify(message string) *models.Classification {
	lower := strings.ToLower(strings.TrimSpace(message))
	normalized := normalize.Text(message)

	language := c.detectLanguage(lower, message)
	slots := c.extractSlots(lower, normalized)
	intent := c.detectIntent(lower, slots)

	var confidence float64
	switch {
	case intent == models.IntentFood && language == models.LangFrench:
		confidence = 0.9
	case intent == models.IntentGreeting, intent == models.IntentFarewell, intent == models.IntentAboutBot:
		confidence = 1.0
	default:
		confidence = 0.7
	}

	return &models.Classification{
		Intent:     intent,
		Language:   language,
		Confidence: confidence,
		Slots:      slots,
	}
}

func (c *Classifier) detectLanguage(lower, raw string) models.Language {
	for _, contraction := range frenchContractions {
		if strings.Contains(lower, contraction) {
			return models.LangFrench
		}
	}

	words := strings.Fields(lower)
	matches := 0
	for _, w := range words {
		if _, ok := frenchWords[w]; ok {
			matches++
		}
	}
	if len(words) > 0 && float64(matches)/float64(len(words)) > 0.2 {
		return models.LangFrench
	}

	for _, ch := range frenchChars {
		if strings.Contains(raw, ch) {
			return models.LangFrench
		}
	}
	return models.LangNonFrench
}

func (c *Classifier) detectIntent(lower string, slots models.Slots) models.Intent {
	for _, p := range greetingPatterns {
		if p.MatchString(lower) {
			return models.IntentGreeting
		}
	}
	for _, p := range farewellPatterns {
		if p.MatchString(lower) {
			return models.IntentFarewell
		}
	}
	for _, p := range aboutPatterns {
		if p.MatchString(lower) {
			return models.IntentAboutBot
		}
	}
	for _, p := range injectionPatterns {
		if p.MatchString(lower) {
			return models.IntentInjection
		}
	}
	for _, p := range foodPatterns {
		if p.MatchString(lower) {
			return models.IntentFood
		}
	}
	// A known dish or ingredient in the message is a food request even when
	// no food phrasing matched.
	if len(slots.Dishes) > 0 || len(slots.Ingredients) > 0 {
		return models.IntentFood
	}
	for _, kw := range foodKeywords {
		if strings.Contains(lower, kw) {
			return models.IntentFood
		}
	}
	return models.IntentOffTopic
}

func (c *Classifier) extractSlots(lower, normalized string) models.Slots {
	var slots models.Slots

	if dish := c.graph.FindDish(normalized); dish != nil {
		slots.Dishes = append(slots.Dishes, dish.Name)
	}
	for _, ing := range commonIngredients {
		if strings.Contains(lower, ing) || strings.Contains(normalized, normalize.Text(ing)) {
			slots.Ingredients = appendUnique(slots.Ingredients, ing)
		}
	}
	for _, mp := range methodPatterns {
		for _, trigger := range mp.triggers {
			if strings.Contains(lower, trigger) {
				slots.Methods = appendUnique(slots.Methods, mp.method)
				break
			}
		}
	}
	for _, op := range occasionPatterns {
		for _, trigger := range op.triggers {
			if strings.Contains(lower, trigger) {
				slots.Occasions = appendUnique(slots.Occasions, op.occasion)
				break
			}
		}
	}
	return slots
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
