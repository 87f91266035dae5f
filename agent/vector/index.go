// Package vector implements the embedding-backed nearest-neighbor store used
// for knowledge retrieval. Search is exact brute-force L2 over every stored
// vector, which is fine at the expected scale (tens to low thousands of
// documents).
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
)

const (
	// DefaultTopK and DefaultScoreThreshold mirror the retrieval stage's
	// standing call: up to three documents within L2 distance 1.0.
	DefaultTopK           = 3
	DefaultScoreThreshold = 1.0
)

// Result is one ranked search hit.
type Result struct {
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float64           `json:"distance"`
	// Similarity = exp(-Distance): strictly decreasing in distance,
	// bounded in (0, 1].
	Similarity float64 `json:"similarity"`
}

// Index stores (document, metadata, embedding) triples and answers top-k
// queries. Mutation is mutually exclusive with concurrent searches.
type Index struct {
	embedder contractx.Embedder

	mu        sync.RWMutex
	dim       int
	vectors   [][]float32
	documents []string
	metadata  []map[string]string
}

// New builds an empty index around the given embedder.
func New(embedder contractx.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add inserts a single document.
func (ix *Index) Add(ctx context.Context, doc string, metadata map[string]string) error {
	return ix.AddBatch(ctx, []string{doc}, []map[string]string{metadata})
}

// AddBatch inserts documents with one embedding call for the whole batch.
// metadata may be nil or shorter than docs; missing entries become empty maps.
func (ix *Index) AddBatch(ctx context.Context, docs []string, metadata []map[string]string) error {
	if len(docs) == 0 {
		return nil
	}
	if metadata != nil && len(metadata) > len(docs) {
		return fmt.Errorf("%w: metadata count %d exceeds document count %d", contractx.ErrValidation, len(metadata), len(docs))
	}

	embeddings, err := ix.embedder.Embed(ctx, docs)
	if err != nil {
		return fmt.Errorf("%w: embed batch: %v", contractx.ErrModelInvoke, err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("%w: got %d embeddings for %d documents", contractx.ErrSchemaViolation, len(embeddings), len(docs))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i, vec := range embeddings {
		if ix.dim == 0 {
			// Dimensionality is fixed by the first insert.
			ix.dim = len(vec)
		}
		if len(vec) != ix.dim {
			return fmt.Errorf("%w: embedding dim %d, index dim %d", contractx.ErrSchemaViolation, len(vec), ix.dim)
		}
		md := map[string]string{}
		if i < len(metadata) && metadata[i] != nil {
			md = metadata[i]
		}
		ix.vectors = append(ix.vectors, vec)
		ix.documents = append(ix.documents, docs[i])
		ix.metadata = append(ix.metadata, md)
	}
	return nil
}

// Search embeds the query and returns up to topK hits with distance at or
// below threshold, ascending by distance, ties broken by insertion order.
// An empty index yields an empty result, not an error.
func (ix *Index) Search(ctx context.Context, query string, topK int, threshold float64) ([]Result, error) {
	if ix.Count() == 0 {
		return nil, nil
	}
	if topK <= 0 {
		return nil, nil
	}

	embeddings, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", contractx.ErrModelInvoke, err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings for one query", contractx.ErrSchemaViolation, len(embeddings))
	}
	qv := embeddings[0]

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(qv) != ix.dim {
		return nil, fmt.Errorf("%w: query dim %d, index dim %d", contractx.ErrSchemaViolation, len(qv), ix.dim)
	}

	if topK > len(ix.documents) {
		topK = len(ix.documents)
	}

	hits := make([]Result, 0, len(ix.vectors))
	for i, vec := range ix.vectors {
		dist := l2Distance(qv, vec)
		if dist > threshold {
			continue
		}
		hits = append(hits, Result{
			Document:   ix.documents[i],
			Metadata:   ix.metadata[i],
			Distance:   dist,
			Similarity: math.Exp(-dist),
		})
	}

	// Stable sort preserves insertion order between equal distances.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count reports the number of stored documents.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.documents)
}

// Clear empties the index. A subsequent Search returns empty, not an error.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = 0
	ix.vectors = nil
	ix.documents = nil
	ix.metadata = nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
