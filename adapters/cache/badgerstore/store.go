// Package badgerstore implements the phi cache on a Badger key-value
// store, so repertoires survive process restarts and long sweeps over
// the same network resume instead of recomputing.
//
// The store keeps an in-process memory cache in front of Badger: the
// memory layer provides the per-key in-flight latch, Badger provides
// persistence. Corrupted entries are treated as misses and rewritten.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	badger "github.com/dgraph-io/badger/v4"

	"gophi/adapters/cache/memory"
	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/ports"
)

// Store is a persistent ports.PhiCache
type Store struct {
	db  *badger.DB
	mem *memory.Cache
}

// Open opens or creates a store at dir. An empty dir opens an in-memory
// Badger instance, useful for tests.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts = opts.WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, mem: memory.New()}, nil
}

type repRecord struct {
	Purview []int     `json:"purview"`
	Data    []float64 `json:"data"`
}

type phiRecord struct {
	Phi float64 `json:"phi"`
}

// GetOrComputeRepertoire checks Badger behind the in-memory latch and
// computes on a true miss.
func (s *Store) GetOrComputeRepertoire(ctx context.Context, key ports.CacheKey, compute func() (phi.Repertoire, error)) (phi.Repertoire, error) {
	return s.mem.GetOrComputeRepertoire(ctx, key, func() (phi.Repertoire, error) {
		if rec, ok := s.loadRep(key); ok {
			return phi.Repertoire{Purview: phi.NewNodeSet(rec.Purview...), Data: rec.Data}, nil
		}
		rep, err := compute()
		if err != nil {
			return phi.Repertoire{}, err
		}
		s.storeJSON(key, repRecord{Purview: rep.Purview, Data: rep.Data})
		return rep, nil
	})
}

// GetOrComputePhi checks Badger behind the in-memory latch and computes
// on a true miss.
func (s *Store) GetOrComputePhi(ctx context.Context, key ports.CacheKey, compute func() (float64, error)) (float64, error) {
	return s.mem.GetOrComputePhi(ctx, key, func() (float64, error) {
		var rec phiRecord
		if s.loadJSON(key, &rec) {
			return rec.Phi, nil
		}
		v, err := compute()
		if err != nil {
			return 0, err
		}
		s.storeJSON(key, phiRecord{Phi: v})
		return v, nil
	})
}

func (s *Store) loadRep(key ports.CacheKey) (repRecord, bool) {
	var rec repRecord
	if !s.loadJSON(key, &rec) {
		return repRecord{}, false
	}
	if len(rec.Data) != phi.StateCount(len(rec.Purview)) {
		err := core.NewCacheCorruptionError(string(key),
			fmt.Errorf("%d data points for %d purview nodes", len(rec.Data), len(rec.Purview)))
		log.Printf("[BadgerCache] %v, recomputing", err)
		return repRecord{}, false
	}
	return rec, true
}

// loadJSON reads and decodes one entry. Decode failures are logged and
// reported as misses; the entry is overwritten by the recompute.
func (s *Store) loadJSON(key ports.CacheKey, out any) bool {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		log.Printf("[BadgerCache] read failed for %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("[BadgerCache] %v, recomputing", core.NewCacheCorruptionError(string(key), err))
		return false
	}
	return true
}

// storeJSON writes one entry. Write failures only cost a future
// recompute, so they are logged and swallowed.
func (s *Store) storeJSON(key ports.CacheKey, rec any) {
	raw, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[BadgerCache] encode failed for %s: %v", key, err)
		return
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
	if err != nil {
		log.Printf("[BadgerCache] write failed for %s: %v", key, err)
	}
}

// Close flushes and closes the underlying database
func (s *Store) Close() error {
	if err := s.mem.Close(); err != nil {
		return err
	}
	return s.db.Close()
}
