package toolbar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes of the badger storage.
const (
	prefixProfile = "profile:"
	prefixTime    = "time:"
)

// BadgerStorage persists profiles in a badger database. Entries expire
// after the configured TTL.
type BadgerStorage struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens (or creates) a profile database at path. An empty
// path opens an in-memory database. A zero ttl keeps profiles forever.
func OpenBadger(path string, ttl time.Duration) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStorage{db: db, ttl: ttl}, nil
}

// Close closes the database.
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

func profileKey(token string) []byte { return []byte(prefixProfile + token) }

// timeKey orders the index by write time. The zero-padded timestamp
// keeps lexical and chronological order aligned.
func timeKey(t time.Time, token string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixTime, t.UnixNano(), token))
}

func (s *BadgerStorage) entry(key, value []byte) *badger.Entry {
	e := badger.NewEntry(key, value)
	if s.ttl > 0 {
		e = e.WithTTL(s.ttl)
	}
	return e
}

func (s *BadgerStorage) Write(_ context.Context, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", p.Token, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(profileKey(p.Token), data)); err != nil {
			return fmt.Errorf("put profile %s: %w", p.Token, err)
		}
		if err := txn.SetEntry(s.entry(timeKey(p.Time, p.Token), []byte(p.Token))); err != nil {
			return fmt.Errorf("index profile %s: %w", p.Token, err)
		}
		return nil
	})
}

func (s *BadgerStorage) Read(_ context.Context, token string) (*Profile, error) {
	var p *Profile
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getProfileInTxn(txn, token)
		return err
	})
	return p, err
}

func (s *BadgerStorage) List(ctx context.Context, limit int) ([]*Profile, error) {
	out := []*Profile{}
	if limit <= 0 {
		return out, nil
	}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixTime)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key not above the seek
		// key, so seek past every time key.
		for it.Seek([]byte(prefixTime + "~")); it.Valid() && len(out) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			token, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read index: %w", err)
			}
			p, err := getProfileInTxn(txn, string(token))
			if errors.Is(err, ErrProfileNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getProfileInTxn(txn *badger.Txn, token string) (*Profile, error) {
	item, err := txn.Get(profileKey(token))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", token, err)
	}
	var p Profile
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", token, err)
	}
	return &p, nil
}
