package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Extension is the suffix of every session record.
const Extension = ".json"

// prefixRunes is how much of the triggering prompt names a new record.
const prefixRunes = 20

var (
	ErrStoreRead  = errors.New("session store read failed")
	ErrStoreWrite = errors.New("session store write failed")
)

// Message is one persisted turn. The record format is exactly a JSON array
// of these, in conversation order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is a record loaded from the store. ID is the record's filename
// without the extension and doubles as its display name.
type Session struct {
	ID        string
	Messages  []Message
	CreatedAt time.Time
}

func (s Session) Filename() string {
	return s.ID + Extension
}

// Store keeps one record per session in a single directory.
type Store struct {
	dir string
}

// NewStore creates the history directory if needed
func NewStore(dir string) (*Store, error) {
	// 0700 - records hold private conversations
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

type record struct {
	name      string
	createdAt time.Time
}

func (s *Store) records() ([]record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read history directory: %w", ErrStoreRead, err)
	}

	var records []record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		records = append(records, record{name: entry.Name()})
	}
	return records, nil
}

// Count returns the number of records currently in the store.
func (s *Store) Count() (int, error) {
	records, err := s.records()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// List loads every record, newest first by file creation time.
//
// Records that cannot be read or parsed are skipped; the sessions that did
// load are returned together with an error joining one ErrStoreRead per
// skipped record. Only a failure to read the directory returns no sessions.
func (s *Store) List() ([]Session, error) {
	records, err := s.records()
	if err != nil {
		return nil, err
	}

	var errs []error
	kept := records[:0]
	for _, r := range records {
		createdAt, err := createdAt(filepath.Join(s.dir, r.name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrStoreRead, r.name, err))
			continue
		}
		r.createdAt = createdAt
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].createdAt.After(kept[j].createdAt)
	})

	sessions := make([]Session, 0, len(kept))
	for _, r := range kept {
		id := strings.TrimSuffix(r.name, Extension)
		messages, err := s.read(r.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sessions = append(sessions, Session{
			ID:        id,
			Messages:  messages,
			CreatedAt: r.createdAt,
		})
	}

	return sessions, errors.Join(errs...)
}

// Load reads a single session by ID.
func (s *Store) Load(id string) (*Session, error) {
	filename := id + Extension
	messages, err := s.read(filename)
	if err != nil {
		return nil, err
	}

	created, err := createdAt(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreRead, filename, err)
	}

	return &Session{ID: id, Messages: messages, CreatedAt: created}, nil
}

func (s *Store) read(filename string) ([]Message, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrStoreRead, filename, err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrStoreRead, filename, err)
	}
	if messages == nil {
		messages = []Message{}
	}

	return messages, nil
}

// Save overwrites the named record with the full message list. Encoding is
// deterministic, so saving unchanged content reproduces the same bytes.
func (s *Store) Save(filename string, messages []Message) error {
	if filename == "" || filepath.Base(filename) != filename || !strings.HasSuffix(filename, Extension) {
		return fmt.Errorf("%w: invalid record name %q", ErrStoreWrite, filename)
	}
	if messages == nil {
		messages = []Message{}
	}

	// Message text keeps <, > and & as written; code answers are full of them.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(messages); err != nil {
		return fmt.Errorf("%w: failed to marshal session: %w", ErrStoreWrite, err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	// 0600 - session files contain conversation history
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0600); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", ErrStoreWrite, filename, err)
	}

	return nil
}

// AllocateFilename names the record for a new session: the first 20
// characters of the triggering prompt, "_", the number of records already in
// the store, and the extension.
//
// The count is not unique on its own (a deleted record lowers it), so when
// the name is taken the number is bumped until it is free instead of
// overwriting another session.
func (s *Store) AllocateFilename(prompt string) (string, error) {
	count, err := s.Count()
	if err != nil {
		return "", err
	}

	prefix := SanitizeFilename(firstRunes(prompt, prefixRunes))
	for n := count; ; n++ {
		name := prefix + "_" + strconv.Itoa(n) + Extension
		_, err := os.Lstat(filepath.Join(s.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: failed to check %s: %w", ErrStoreRead, name, err)
		}
	}
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// SanitizeFilename replaces characters that cannot appear in a filename.
// Everything else, spaces included, is kept so record names stay readable.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if unicode.IsControl(r) {
			return '-'
		}
		return r
	}, name)
}
