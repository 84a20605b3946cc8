// Package index provides the two immutable in-memory indexes built at startup:
// the content index for keyword retrieval over both corpora, and the link index
// that is the only source of publication URLs.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/sahtein/sahtein/internal/models"
	"github.com/sahtein/sahtein/internal/normalize"
)

// Hit is a single content index match.
type Hit struct {
	Doc   *models.Document
	Score float64
}

// indexDoc is the flat shape handed to Bleve. All text is pre-normalized so
// accented and unaccented spellings of the same word index identically.
type indexDoc struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Ingredients string `json:"ingredients"`
	Tags        string `json:"tags"`
	Source      string `json:"source"`
}

// ContentIndex is a memory-only keyword index over the merged corpus.
// Built once from a corpus snapshot; safe for concurrent reads.
type ContentIndex struct {
	index bleve.Index
	docs  map[string]*models.Document
}

// NewContentIndex builds a mem-only Bleve index over the given documents.
func NewContentIndex(docs []*models.Document) (*ContentIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): French culinary
	// terms like "taboule" must match exactly after normalization, and English
	// stemming would mangle them.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("ingredients", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("source", keywordFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create content index: %w", err)
	}

	ci := &ContentIndex{index: idx, docs: make(map[string]*models.Document, len(docs))}
	batch := idx.NewBatch()
	for _, doc := range docs {
		if doc.ID == "" {
			continue
		}
		ci.docs[doc.ID] = doc
		if err := batch.Index(doc.ID, toIndexDoc(doc)); err != nil {
			return nil, fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to commit index batch: %w", err)
	}
	return ci, nil
}

func toIndexDoc(doc *models.Document) *indexDoc {
	return &indexDoc{
		Title:       normalize.Text(doc.Title),
		Content:     normalize.Text(doc.Content),
		Ingredients: normalize.Searchable(doc.Ingredients...),
		Tags:        normalize.Searchable(doc.Tags...),
		Source:      string(doc.Source),
	}
}

// Search runs a keyword query over title, content and ingredients, with title
// matches weighted highest. The query is normalized before matching.
func (c *ContentIndex) Search(ctx context.Context, query string, limit int) ([]*Hit, error) {
	normalized := normalize.Text(query)
	if normalized == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	fields := []struct {
		name  string
		boost float64
	}{
		{"title", 2.0},
		{"ingredients", 1.5},
		{"content", 1.0},
		{"tags", 1.0},
	}
	queries := make([]blevequery.Query, 0, len(fields))
	for _, f := range fields {
		mq := bleve.NewMatchQuery(normalized)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		queries = append(queries, mq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = limit
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("content search failed: %w", err)
	}

	out := make([]*Hit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, ok := c.docs[hit.ID]
		if !ok {
			continue
		}
		out = append(out, &Hit{Doc: doc, Score: hit.Score})
	}
	return out, nil
}

// SearchFuzzy is Search with typo tolerance, used when the exact query comes
// back empty. Each term matches within the given edit distance.
func (c *ContentIndex) SearchFuzzy(ctx context.Context, query string, limit, fuzziness int) ([]*Hit, error) {
	normalized := normalize.Text(query)
	if normalized == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if fuzziness <= 0 {
		fuzziness = 1
	}

	terms := strings.Fields(normalized)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	if len(queries) == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = limit
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fuzzy content search failed: %w", err)
	}

	out := make([]*Hit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, ok := c.docs[hit.ID]
		if !ok {
			continue
		}
		out = append(out, &Hit{Doc: doc, Score: hit.Score})
	}
	return out, nil
}

// Doc returns the document for id, or nil when absent.
func (c *ContentIndex) Doc(id string) *models.Document {
	return c.docs[id]
}

// DocCount returns the number of indexed documents.
func (c *ContentIndex) DocCount() int {
	return len(c.docs)
}

// Close releases the underlying Bleve index.
func (c *ContentIndex) Close() error {
	return c.index.Close()
}
