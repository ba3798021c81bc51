package engine

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// snapshotDoc is the storage shape of one document (gob needs exported
// fields; the domain value object is rebuilt on load).
type snapshotDoc struct {
	ID        string
	Content   string
	Tokens    []string
	Embedding []float32
	Metadata  map[string]string
}

// snapshot is the persisted engine state. Indices are never persisted, only
// the documents they are derived from. Count is a sanity check on load.
type snapshot struct {
	Docs    []snapshotDoc
	Weights domain.FusionWeights
	Count   int
}

// Save serializes the document store and fusion weights to a single gob
// blob at path.
func (e *Engine) Save(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := e.WriteTo(f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot %s: %w", path, err)
	}

	e.logger.Info("Snapshot saved", zap.String("path", path), zap.Int("documents", len(e.docs)))
	return nil
}

// WriteTo encodes the engine state to w.
func (e *Engine) WriteTo(w io.Writer) error {
	snap := snapshot{
		Docs:    make([]snapshotDoc, len(e.docs)),
		Weights: e.weights,
		Count:   len(e.docs),
	}
	for i := range e.docs {
		d := &e.docs[i]
		snap.Docs[i] = snapshotDoc{
			ID:        d.ID(),
			Content:   d.Content(),
			Tokens:    d.Tokens(),
			Embedding: d.Embedding(),
			Metadata:  d.Metadata(),
		}
	}

	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Load replaces all in-memory state with a previously saved snapshot and
// rebuilds both indices from the restored documents. A malformed blob fails
// the call and leaves the current state untouched.
func (e *Engine) Load(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := e.ReadFrom(f); err != nil {
		return err
	}

	e.logger.Info("Snapshot loaded", zap.String("path", path), zap.Int("documents", len(e.docs)))
	return nil
}

// ReadFrom decodes engine state from r. The snapshot is decoded and
// validated in full before any in-memory state is replaced.
func (e *Engine) ReadFrom(r io.Reader) error {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("%w: decode: %w", domain.ErrBadSnapshot, err)
	}
	if snap.Count != len(snap.Docs) {
		return fmt.Errorf("%w: document count %d does not match stored count %d",
			domain.ErrBadSnapshot, len(snap.Docs), snap.Count)
	}
	if err := snap.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBadSnapshot, err)
	}

	docs := make([]domain.IndexedDocument, len(snap.Docs))
	for i, sd := range snap.Docs {
		docs[i] = domain.NewIndexedDocument(sd.ID, sd.Content, sd.Tokens, sd.Embedding, sd.Metadata)
	}

	e.docs = docs
	e.weights = snap.Weights
	e.nextID = len(docs)
	e.rebuild()
	return nil
}
