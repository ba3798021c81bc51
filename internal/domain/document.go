// Package domain holds the core types of the retrieval engine.
package domain

// Record is one unit of ingestable content from a document-producing
// collaborator: a content string plus optional metadata and identifier.
type Record struct {
	Content  string
	Metadata map[string]string
	ID       string
}

// IndexedDocument is one unit of retrievable content (immutable value object).
// Content, tokens and embedding never change once set; both indices are
// rebuilt from, not shared with, the owning store.
type IndexedDocument struct {
	id        string
	content   string
	tokens    []string
	embedding []float32
	metadata  map[string]string
}

// NewIndexedDocument creates an indexed document.
// The metadata map is copied; token and embedding slices are owned by the document.
func NewIndexedDocument(
	id, content string, tokens []string, embedding []float32, metadata map[string]string,
) IndexedDocument {
	return IndexedDocument{
		id:        id,
		content:   content,
		tokens:    tokens,
		embedding: embedding,
		metadata:  cloneStringMap(metadata),
	}
}

// ID returns the externally supplied or store-assigned identifier.
func (d *IndexedDocument) ID() string { return d.id }

// Content returns the original text.
func (d *IndexedDocument) Content() string { return d.content }

// Tokens returns the normalized term sequence.
func (d *IndexedDocument) Tokens() []string { return d.tokens }

// Embedding returns the embedding vector (all-zero when the provider failed).
func (d *IndexedDocument) Embedding() []float32 { return d.embedding }

// Metadata returns the caller-provided metadata.
func (d *IndexedDocument) Metadata() map[string]string { return d.metadata }

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
