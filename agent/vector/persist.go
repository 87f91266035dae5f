package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
)

const (
	indexFileName = "index.json"
	docsFileName  = "documents.json"
)

// indexArtifact and docsArtifact are the two on-disk halves of the store.
// They are always written and read as a pair.
type indexArtifact struct {
	Dim     int         `json:"dim"`
	Vectors [][]float32 `json:"vectors"`
}

type docsArtifact struct {
	Documents []string            `json:"documents"`
	Metadata  []map[string]string `json:"metadata"`
}

// Persist writes both artifacts under dir, creating it if needed.
func (ix *Index) Persist(dir string) error {
	ix.mu.RLock()
	idx := indexArtifact{Dim: ix.dim, Vectors: ix.vectors}
	docs := docsArtifact{Documents: ix.documents, Metadata: ix.metadata}
	ix.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, indexFileName), idx); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, docsFileName), docs)
}

// Load replaces the index content from the artifact pair under dir. It
// returns (false, err) and leaves the index untouched if either artifact is
// missing, unreadable, or the vector and document counts disagree.
func (ix *Index) Load(dir string) (bool, error) {
	var idx indexArtifact
	if err := readJSON(filepath.Join(dir, indexFileName), &idx); err != nil {
		return false, err
	}
	var docs docsArtifact
	if err := readJSON(filepath.Join(dir, docsFileName), &docs); err != nil {
		return false, err
	}

	if len(idx.Vectors) != len(docs.Documents) {
		return false, fmt.Errorf("%w: %d vectors but %d documents", contractx.ErrPersistence, len(idx.Vectors), len(docs.Documents))
	}
	if len(docs.Metadata) != 0 && len(docs.Metadata) != len(docs.Documents) {
		return false, fmt.Errorf("%w: %d metadata entries but %d documents", contractx.ErrPersistence, len(docs.Metadata), len(docs.Documents))
	}
	for _, vec := range idx.Vectors {
		if len(vec) != idx.Dim {
			return false, fmt.Errorf("%w: vector dim %d, artifact dim %d", contractx.ErrPersistence, len(vec), idx.Dim)
		}
	}

	metadata := docs.Metadata
	if metadata == nil {
		metadata = make([]map[string]string, len(docs.Documents))
		for i := range metadata {
			metadata[i] = map[string]string{}
		}
	}

	ix.mu.Lock()
	ix.dim = idx.Dim
	ix.vectors = idx.Vectors
	ix.documents = docs.Documents
	ix.metadata = metadata
	ix.mu.Unlock()
	return true, nil
}

func writeJSON(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", contractx.ErrPersistence, filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", contractx.ErrPersistence, filepath.Base(path), err)
	}
	return nil
}
