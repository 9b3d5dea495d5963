package relations

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/reductstore/reduct-operator/pkg/types"
)

var bucketRelations = []byte("relations")

// BoltStore implements Store on BoltDB. The database file lives on storage
// shared with the platform agent, which writes the peer side of each record.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the relation database under dataDir
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "relations.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open relation database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRelations)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create relations bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// IDs returns all relation identifiers ordered by stable relation ID
func (s *BoltStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		return b.ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, &types.TransientIOError{Op: "list relation ids", Err: err}
	}
	sort.Slice(ids, func(i, j int) bool {
		return types.CompareRelationIDs(ids[i], ids[j]) < 0
	})
	return ids, nil
}

// List returns all relations ordered by stable relation ID
func (s *BoltStore) List(ctx context.Context) ([]*types.RelationRecord, error) {
	var records []*types.RelationRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		return b.ForEach(func(k, v []byte) error {
			var record types.RelationRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, &types.TransientIOError{Op: "list relations", Err: err}
	}
	sort.Slice(records, func(i, j int) bool {
		return types.CompareRelationIDs(records[i].ID, records[j].ID) < 0
	})
	return records, nil
}

// Get returns one relation by ID
func (s *BoltStore) Get(ctx context.Context, id string) (*types.RelationRecord, error) {
	var record types.RelationRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("relation not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetLocal overwrites only the owned fields of the relation, leaving the
// peer's fields exactly as last read.
func (s *BoltStore) SetLocal(ctx context.Context, id string, fields map[string]string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("relation not found: %s", id)
		}
		var record types.RelationRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		record.LocalData = copyFields(fields)
		updated, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
}

// Put creates or replaces a whole relation record
func (s *BoltStore) Put(ctx context.Context, record *types.RelationRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return b.Put([]byte(record.ID), data)
	})
}

// Delete removes a relation
func (s *BoltStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRelations)
		return b.Delete([]byte(id))
	})
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
