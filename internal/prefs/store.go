package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// List names a user-defined preference list.
type List string

const (
	JobTitles List = "job-titles"
	Roles     List = "roles"
)

// Lists are the preference lists the dashboard keeps.
var Lists = []List{JobTitles, Roles}

var ErrUnknownList = errors.New("unknown preference list")
var ErrBlankValue = errors.New("preference value must not be blank")

// Valid reports whether l is a known list.
func (l List) Valid() bool {
	for _, known := range Lists {
		if l == known {
			return true
		}
	}
	return false
}

// Store keeps custom job titles and roles per user in a bbolt file. Each
// list is stored as a plain JSON array of strings under the user's id.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the preference database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preference directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open preference database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, list := range Lists {
			if _, err := tx.CreateBucketIfNotExists([]byte(list)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preference buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the user's values for list, never nil.
func (s *Store) Get(userID string, list List) ([]string, error) {
	if !list.Valid() {
		return nil, ErrUnknownList
	}

	values := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		values, err = read(tx.Bucket([]byte(list)), userID)
		return err
	})
	return values, err
}

// Add appends value to the user's list. Surrounding whitespace is trimmed
// and values already present (ignoring case) are not added twice.
func (s *Store) Add(userID string, list List, value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrBlankValue
	}

	return s.update(userID, list, func(values []string) []string {
		for _, existing := range values {
			if strings.EqualFold(existing, value) {
				return values
			}
		}
		return append(values, value)
	})
}

// Remove deletes value (ignoring case) from the user's list.
func (s *Store) Remove(userID string, list List, value string) ([]string, error) {
	value = strings.TrimSpace(value)
	return s.update(userID, list, func(values []string) []string {
		kept := values[:0]
		for _, existing := range values {
			if !strings.EqualFold(existing, value) {
				kept = append(kept, existing)
			}
		}
		return kept
	})
}

func (s *Store) update(userID string, list List, change func([]string) []string) ([]string, error) {
	if !list.Valid() {
		return nil, ErrUnknownList
	}

	var values []string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(list))
		current, err := read(b, userID)
		if err != nil {
			return err
		}

		values = change(current)
		data, err := json.Marshal(values)
		if err != nil {
			return err
		}
		return b.Put([]byte(userID), data)
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func read(b *bbolt.Bucket, userID string) ([]string, error) {
	values := []string{}
	if b == nil {
		return values, nil
	}

	data := b.Get([]byte(userID))
	if data == nil {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode preference list: %w", err)
	}
	return values, nil
}
