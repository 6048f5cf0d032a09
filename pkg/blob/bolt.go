package blob

import (
	"fmt"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"
)

// BoltAdapter stores blobs in a single bbolt database file, one top-level
// bucket per path's first segment ("collection") and the remainder of the
// path as the key within it. Adapted from the teacher's bucket-per-entity
// layout, generalized from fixed entity kinds to Strata's flat path space:
// buckets are created on demand rather than fixed up front.
type BoltAdapter struct {
	db *bolt.DB
}

// NewBoltAdapter opens (creating if necessary) a bbolt database at path.
func NewBoltAdapter(path string) (*BoltAdapter, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("blob: opening bolt database %s: %w", path, err)
	}
	return &BoltAdapter{db: db}, nil
}

// Close releases the underlying database file.
func (a *BoltAdapter) Close() error {
	return a.db.Close()
}

func splitPath(path string) (bucket, key string, err error) {
	i := strings.IndexByte(path, '/')
	if i < 0 || i == len(path)-1 {
		return "", "", invalidPathError(path)
	}
	return path[:i], path[i+1:], nil
}

func (a *BoltAdapter) Read(path string) ([]byte, error) {
	bucket, key, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	var value []byte
	notFound := false
	err = a.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			notFound = true
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			notFound = true
			return nil
		}
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err != nil {
		return nil, operationFailedError(path, err)
	}
	if notFound {
		return nil, notFoundError(path)
	}
	return value, nil
}

func (a *BoltAdapter) Write(path string, value []byte) error {
	bucket, key, err := splitPath(path)
	if err != nil {
		return err
	}

	err = a.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return operationFailedError(path, err)
	}
	return nil
}

func (a *BoltAdapter) Delete(path string) error {
	bucket, key, err := splitPath(path)
	if err != nil {
		return err
	}

	notFound := false
	err = a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			notFound = true
			return nil
		}
		if b.Get([]byte(key)) == nil {
			notFound = true
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return operationFailedError(path, err)
	}
	if notFound {
		return notFoundError(path)
	}
	return nil
}

func (a *BoltAdapter) Exists(path string) (bool, error) {
	bucket, key, err := splitPath(path)
	if err != nil {
		return false, err
	}

	var found bool
	err = a.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		found = b.Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		return false, operationFailedError(path, err)
	}
	return found, nil
}

// List returns the keys directly within bucket directory. Listing the
// root (directory == "") returns the names of all top-level buckets.
func (a *BoltAdapter) List(directory string) ([]string, error) {
	var names []string

	if directory == "" {
		err := a.db.View(func(tx *bolt.Tx) error {
			return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
				names = append(names, string(name))
				return nil
			})
		})
		if err != nil {
			return nil, operationFailedError(directory, err)
		}
		sort.Strings(names)
		return names, nil
	}

	err := a.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(directory))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, operationFailedError(directory, err)
	}
	sort.Strings(names)
	return names, nil
}
