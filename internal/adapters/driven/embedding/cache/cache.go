// Package cache wraps an embedding service with a persistent badger cache.
//
// Vectors are keyed by model name and the sha256 of the input text, so
// re-ingesting an unchanged report costs no upstream calls.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"

	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves cached vectors and delegates misses.
type EmbeddingService struct {
	inner driven.EmbeddingService
	db    *badger.DB
}

// Open opens (or creates) a cache database in dir.
func Open(inner driven.EmbeddingService, dir string) (*EmbeddingService, error) {
	return open(inner, badger.DefaultOptions(dir))
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory(inner driven.EmbeddingService) (*EmbeddingService, error) {
	return open(inner, badger.DefaultOptions("").WithInMemory(true))
}

func open(inner driven.EmbeddingService, opts badger.Options) (*EmbeddingService, error) {
	if inner == nil {
		return nil, errors.New("embedding cache: inner service is required")
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return &EmbeddingService{inner: inner, db: db}, nil
}

// Embed returns the cached vector for text or embeds it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch resolves hits from the cache and embeds the misses in one
// upstream call. Cache failures degrade to a plain upstream call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	keys := make([][]byte, len(texts))
	for i, text := range texts {
		keys[i] = s.key(text)
	}

	err := s.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if vec, ok := decode(raw); ok && len(vec) == s.inner.Dimensions() {
				out[i] = vec
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("embedding cache read failed: %v", err)
		for i := range out {
			out[i] = nil
		}
	}

	var missIdx []int
	var missTexts []string
	for i, vec := range out {
		if vec == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for j, i := range missIdx {
			out[i] = fresh[j]
			if err := txn.Set(keys[i], encode(fresh[j])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("embedding cache write failed: %v", err)
		for j, i := range missIdx {
			out[i] = fresh[j]
		}
	}
	return out, nil
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the cache database and the inner service.
func (s *EmbeddingService) Close() error {
	return errors.Join(s.db.Close(), s.inner.Close())
}

func (s *EmbeddingService) key(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte("emb:" + s.inner.ModelName() + ":" + hex.EncodeToString(sum[:]))
}

func encode(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decode(raw []byte) ([]float32, bool) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, true
}
