package index

import (
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// LinkIndex is the sole authority on publication URLs. Every link served to a
// user resolves through it; nothing downstream may construct a URL.
// Built once from a corpus snapshot; safe for concurrent reads.
type LinkIndex struct {
	byNormTitle map[string]*models.Article
	bySlug      map[string]*models.Article
	byTag       map[string][]*models.Article
	byChef      map[string][]*models.Article

	// normTitles holds the map keys sorted, so similarity scans visit
	// candidates in a fixed order and ties resolve identically on every run.
	normTitles []string

	// byRecency holds all articles ordered most recent first.
	byRecency []*models.Article

	urls map[string]struct{}
}

// NewLinkIndex builds the link index from external articles. Articles without
// a URL are skipped; they can never be served.
func NewLinkIndex(articles []*models.Article) *LinkIndex {
	li := &LinkIndex{
		byNormTitle: make(map[string]*models.Article, len(articles)),
		bySlug:      make(map[string]*models.Article, len(articles)),
		byTag:       make(map[string][]*models.Article),
		byChef:      make(map[string][]*models.Article),
		urls:        make(map[string]struct{}, len(articles)),
	}

	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		nt := a.NormalizedTitle
		if nt == "" {
			nt = normalize.RecipeName(a.Title)
		}
		if nt != "" {
			if _, dup := li.byNormTitle[nt]; !dup {
				li.byNormTitle[nt] = a
			}
		}
		if a.Slug != "" {
			if _, dup := li.bySlug[a.Slug]; !dup {
				li.bySlug[a.Slug] = a
			}
		}
		for _, tag := range a.Tags {
			t := normalize.Text(tag)
			if t != "" {
				li.byTag[t] = append(li.byTag[t], a)
			}
		}
		if chef := normalize.Text(a.Chef); chef != "" {
			li.byChef[chef] = append(li.byChef[chef], a)
		}
		li.byRecency = append(li.byRecency, a)
		li.urls[a.URL] = struct{}{}
	}

	li.normTitles = make([]string, 0, len(li.byNormTitle))
	for nt := range li.byNormTitle {
		li.normTitles = append(li.normTitles, nt)
	}
	sort.Strings(li.normTitles)

	sort.SliceStable(li.byRecency, func(i, j int) bool {
		ti, tj := li.byRecency[i].RecencyTime(), li.byRecency[j].RecencyTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return li.byRecency[i].ID < li.byRecency[j].ID
	})
	for _, articles := range li.byTag {
		sortByPopularity(articles)
	}
	for _, articles := range li.byChef {
		sortByPopularity(articles)
	}

	return li
}

func sortByPopularity(articles []*models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Popularity != articles[j].Popularity {
			return articles[i].Popularity > articles[j].Popularity
		}
		return articles[i].ID < articles[j].ID
	})
}

// FindExact returns the article whose normalized title equals the normalized
// query, or nil.
func (li *LinkIndex) FindExact(title string) *models.Article {
	nt := normalize.RecipeName(title)
	if nt == "" {
		return nil
	}
	return li.byNormTitle[nt]
}

// FindSimilar returns the best article whose normalized title is at least
// threshold similar to the query, along with the similarity in [0,1].
// Returns nil when nothing crosses the threshold.
func (li *LinkIndex) FindSimilar(title string, threshold float64) (*models.Article, float64) {
	nt := normalize.RecipeName(title)
	if nt == "" {
		return nil, 0
	}

	var bestTitle string
	var bestScore float64
	for _, candidate := range li.normTitles {
		sim, err := edlib.StringsSimilarity(nt, candidate, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if float64(sim) > bestScore {
			bestScore = float64(sim)
			bestTitle = candidate
		}
	}
	if bestTitle == "" || bestScore < threshold {
		return nil, 0
	}
	return li.byNormTitle[bestTitle], bestScore
}

// FindBySlug returns the article with the given slug, or nil.
func (li *LinkIndex) FindBySlug(slug string) *models.Article {
	return li.bySlug[slug]
}

// FindRecent returns up to n articles, most recent first.
func (li *LinkIndex) FindRecent(n int) []*models.Article {
	if n <= 0 || n > len(li.byRecency) {
		n = len(li.byRecency)
	}
	out := make([]*models.Article, n)
	copy(out, li.byRecency[:n])
	return out
}

// FindByTag returns articles carrying the tag, most popular first.
func (li *LinkIndex) FindByTag(tag string) []*models.Article {
	return li.byTag[normalize.Text(tag)]
}

// FindByChef returns articles attributed to the chef, most popular first.
func (li *LinkIndex) FindByChef(chef string) []*models.Article {
	return li.byChef[normalize.Text(chef)]
}

// HasURL reports whether url is one the index can serve. Used by the content
// guard to reject any URL not originating here.
func (li *LinkIndex) HasURL(url string) bool {
	_, ok := li.urls[url]
	return ok
}

// Len returns the number of link-eligible articles.
func (li *LinkIndex) Len() int {
	return len(li.byRecency)
}
