// Package guard validates composed drafts before they leave the pipeline.
// Every check is repair-first: a draft is only rejected when the violation
// cannot be fixed without inventing content.
package guard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/pkg/utils"
)

// allowedTags are the only HTML elements a response may contain.
var allowedTags = map[string]bool{
	"p": true, "br": true, "a": true, "strong": true, "em": true,
}

var (
	tagPattern          = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)(\s[^>]*)?/?>`)
	hrefPattern         = regexp.MustCompile(`<a\s+[^>]*?href=["']?([^"'\s>]+)["']?[^>]*>(.*?)</a>`)
	bareURLPattern      = regexp.MustCompile(`https?://[^\s<>"']+`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	markdownEmphasis    = regexp.MustCompile(`(\*\*|__|##+\s?)`)
	flagPattern         = regexp.MustCompile(`[\x{1F1E6}-\x{1F1FF}]{2}`)
	recipeListPattern   = regexp.MustCompile(`(?m)(•\s|^\d+\.\s|<br>\s*\d+\.\s|Ingrédients\s*:|Préparation\s*:)`)
)

// Guard enforces the output contract on drafts.
type Guard struct {
	allowedHost string
	maxEmojis   int
	maxWords    int
	// maxWordsFullRecipe applies to the structured-recipe scenario, whose body
	// legitimately carries ingredient and step lists.
	maxWordsFullRecipe int
	logger             *zap.Logger
}

// Verdict is the guard's outcome for an accepted draft.
type Verdict struct {
	HTML     string
	Repaired bool
	Issues   []string
}

// NewGuard creates a guard. allowedHost is the URL prefix every link must
// carry, e.g. "https://www.lorientlejour.com".
func NewGuard(allowedHost string, maxEmojis, maxWords, maxWordsFullRecipe int, logger *zap.Logger) *Guard {
	if maxEmojis <= 0 {
		maxEmojis = 3
	}
	if maxWords <= 0 {
		maxWords = 150
	}
	if maxWordsFullRecipe <= 0 {
		maxWordsFullRecipe = 500
	}
	return &Guard{
		allowedHost:        allowedHost,
		maxEmojis:          maxEmojis,
		maxWords:           maxWords,
		maxWordsFullRecipe: maxWordsFullRecipe,
		logger:             logger,
	}
}

// Validate checks a draft against the output contract, repairing what it can.
// A non-nil error means the draft is irrecoverable and must not be served.
func (g *Guard) Validate(draft *models.Draft) (*Verdict, error) {
	html := draft.HTML
	var issues []string

	// Markdown never reaches the user. Markdown links are flattened to their
	// text because their URL was not vetted against the link index.
	if markdownLinkPattern.MatchString(html) {
		html = markdownLinkPattern.ReplaceAllString(html, "$1")
		issues = append(issues, "markdown link flattened")
	}
	if markdownEmphasis.MatchString(html) {
		html = markdownEmphasis.ReplaceAllString(html, "")
		issues = append(issues, "markdown emphasis stripped")
	}

	// Disallowed tags are removed, keeping their inner text.
	html, stripped := g.stripDisallowedTags(html)
	if len(stripped) > 0 {
		issues = append(issues, "disallowed tags removed: "+strings.Join(stripped, ","))
	}

	// Links outside the publication domain are removed entirely, then a sweep
	// over every remaining URL token catches what the anchor pass missed
	// (naked URLs in prose, URLs inside malformed markup).
	html, removed := g.removeForeignLinks(html)
	if removed > 0 {
		issues = append(issues, fmt.Sprintf("%d foreign links removed", removed))
	}
	html, removedURLs := g.removeForeignBareURLs(html)
	if removedURLs > 0 {
		issues = append(issues, fmt.Sprintf("%d foreign urls removed", removedURLs))
	}

	// No flag emojis, and at most maxEmojis overall.
	if flagPattern.MatchString(html) {
		html = flagPattern.ReplaceAllString(html, "")
		issues = append(issues, "flag emoji stripped")
	}
	if n := countEmojis(html); n > g.maxEmojis {
		html = limitEmojis(html, g.maxEmojis)
		issues = append(issues, fmt.Sprintf("emoji count reduced from %d", n))
	}

	// Word budget, with the full-recipe scenario allowed a longer body.
	limit := g.maxWords
	if draft.Scenario.ShowFullRecipe {
		limit = g.maxWordsFullRecipe
	}
	if words := utils.WordCount(stripTags(html)); words > limit {
		truncated, ok := truncateAtParagraph(html, limit)
		if !ok {
			return nil, fmt.Errorf("draft exceeds %d words and cannot be truncated at a paragraph", limit)
		}
		html = truncated
		issues = append(issues, fmt.Sprintf("truncated from %d words", words))
	}

	// The external-recipe scenario tells the story and links out; recipe
	// content in its body would leak unvetted facts.
	if draft.Scenario.ID == models.ScenarioExternalRecipe && recipeListPattern.MatchString(html) {
		return nil, fmt.Errorf("recipe content leaked into the external article scenario")
	}

	// Link presence must match the scenario contract.
	hasLink := hrefPattern.MatchString(html)
	if draft.Scenario.LinkRequired && !hasLink {
		return nil, fmt.Errorf("scenario %s requires a link but the draft has none", draft.Scenario.Name)
	}
	if !draft.Scenario.LinkRequired && draft.Scenario.ID == models.ScenarioNonFrench && hasLink {
		html = hrefPattern.ReplaceAllString(html, "$2")
		issues = append(issues, "link removed from link-free scenario")
	}

	// Every scenario except the non-French one answers in French. Warning
	// only: the draft is served, the issue flags the generator for review.
	if draft.Scenario.ID != models.ScenarioNonFrench && looksNonFrench(stripTags(html)) {
		issues = append(issues, "non-French wording detected")
	}

	if len(issues) > 0 {
		g.logger.Info("draft repaired",
			zap.String("scenario", draft.Scenario.Name),
			zap.Strings("issues", issues))
	}
	return &Verdict{HTML: html, Repaired: html != draft.HTML, Issues: issues}, nil
}

// stripDisallowedTags removes tags outside the allow list, keeping inner text.
func (g *Guard) stripDisallowedTags(html string) (string, []string) {
	var stripped []string
	seen := map[string]bool{}
	out := tagPattern.ReplaceAllStringFunc(html, func(tag string) string {
		name := strings.ToLower(tagPattern.FindStringSubmatch(tag)[1])
		if allowedTags[name] {
			return tag
		}
		if !seen[name] {
			seen[name] = true
			stripped = append(stripped, name)
		}
		return ""
	})
	return out, stripped
}

// removeForeignLinks drops anchor elements whose URL is outside the allowed
// host. The whole element goes, not just the href, so the text never implies
// a link that was withheld.
func (g *Guard) removeForeignLinks(html string) (string, int) {
	removed := 0
	out := hrefPattern.ReplaceAllStringFunc(html, func(anchor string) string {
		m := hrefPattern.FindStringSubmatch(anchor)
		if strings.HasPrefix(m[1], g.allowedHost) {
			return anchor
		}
		removed++
		return ""
	})
	return out, removed
}

// removeForeignBareURLs drops any URL token outside the allowed host that
// survives the anchor pass, wherever it sits in the text.
func (g *Guard) removeForeignBareURLs(html string) (string, int) {
	removed := 0
	out := bareURLPattern.ReplaceAllStringFunc(html, func(url string) string {
		if strings.HasPrefix(url, g.allowedHost) {
			return url
		}
		removed++
		return ""
	})
	return out, removed
}

// englishMarkers and frenchMarkers are small stopword lexicons for the output
// language heuristic. Tokens are compared whole so accented French words
// ("thé", "arête") never collide with English entries.
var englishMarkers = map[string]struct{}{
	"the": {}, "and": {}, "you": {}, "your": {}, "with": {}, "this": {},
	"what": {}, "how": {}, "can": {}, "here": {}, "is": {}, "are": {},
	"recipe": {}, "please": {}, "want": {}, "have": {}, "find": {}, "our": {},
}

var frenchMarkers = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "du": {},
	"est": {}, "vous": {}, "je": {}, "avec": {}, "pour": {}, "voici": {},
	"recette": {}, "cette": {}, "notre": {}, "nos": {}, "et": {}, "de": {},
}

// looksNonFrench reports whether plain text reads as English rather than
// French. Two English stopwords outnumbering the French ones is the signal.
func looksNonFrench(text string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	english, french := 0, 0
	for _, tok := range tokens {
		if _, ok := englishMarkers[tok]; ok {
			english++
		}
		if _, ok := frenchMarkers[tok]; ok {
			french++
		}
	}
	return english >= 2 && english > french
}

// stripTags flattens HTML to plain text for word counting.
func stripTags(html string) string {
	return tagPattern.ReplaceAllString(html, " ")
}

// truncateAtParagraph cuts the HTML at the last closed paragraph that keeps
// the word count within limit. Fails when even the first paragraph is too long.
func truncateAtParagraph(html string, limit int) (string, bool) {
	end := len(html)
	for {
		idx := strings.LastIndex(html[:end], "</p>")
		if idx < 0 {
			return "", false
		}
		candidate := html[:idx+len("</p>")]
		if utils.WordCount(stripTags(candidate)) <= limit {
			return candidate, true
		}
		end = idx
	}
}

// isEmojiStart reports whether the rune opens an emoji sequence.
func isEmojiStart(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
		return true
	case r == 0x2728 || r == 0x2B50:
		return true
	}
	return false
}

// countEmojis counts emoji sequences. Joiner continuations (ZWJ) and variation
// selectors extend the current sequence instead of starting a new one.
func countEmojis(s string) int {
	count := 0
	joined := false
	for _, r := range s {
		switch {
		case r == 0x200D:
			joined = true
		case r == 0xFE0F:
			// variation selector, part of the current sequence
		case isEmojiStart(r):
			if !joined {
				count++
			}
			joined = false
		default:
			joined = false
		}
	}
	return count
}

// limitEmojis keeps the first n emoji sequences and drops the rest.
func limitEmojis(s string, n int) string {
	var sb strings.Builder
	count := 0
	joined := false
	for _, r := range s {
		switch {
		case r == 0x200D:
			joined = true
			if count <= n {
				sb.WriteRune(r)
			}
		case r == 0xFE0F:
			if count <= n {
				sb.WriteRune(r)
			}
		case isEmojiStart(r):
			if !joined {
				count++
			}
			joined = false
			if count <= n {
				sb.WriteRune(r)
			}
		default:
			joined = false
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
