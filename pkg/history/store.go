// Package history persists recent generation results per show and artifact
// type. The store is bounded: only the newest entries survive, oldest first
// out, so prompts built from history stay small and current.
package history

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

// DefaultLimit is how many entries each (show, type) bucket retains.
const DefaultLimit = 10

// Store is the bounded history persistence boundary.
type Store interface {
	// Append records a payload for the show and artifact type, evicting the
	// oldest entry once the bucket is full.
	Append(show string, artifactType model.ArtifactType, payload string) (model.HistoryEntry, error)
	// Recent returns up to limit entries, newest first.
	Recent(show string, artifactType model.ArtifactType, limit int) ([]model.HistoryEntry, error)
	// Shows lists every show that has recorded history.
	Shows() ([]string, error)
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._\p{Hiragana}\p{Katakana}\p{Han}-]+`)

// sanitizeShow turns a show name into a directory-safe slug.
func sanitizeShow(show string) string {
	slug := unsafePathChars.ReplaceAllString(strings.TrimSpace(show), "_")
	slug = strings.Trim(slug, "._")
	if slug == "" {
		slug = "default"
	}
	return slug
}

// FileStore keeps one JSON document per (show, type) bucket under a data
// directory. All mutation goes through a single mutex; the write itself is a
// temp-file rename so a crash never leaves a half-written bucket behind.
type FileStore struct {
	fs    afero.Fs
	dir   string
	limit int
	mu    sync.Mutex
	now   func() time.Time
}

// FileStoreOption customizes a FileStore.
type FileStoreOption func(*FileStore)

// WithStoreFs overrides the filesystem (used by tests).
func WithStoreFs(fs afero.Fs) FileStoreOption {
	return func(s *FileStore) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithLimit overrides the per-bucket retention count.
func WithLimit(limit int) FileStoreOption {
	return func(s *FileStore) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithClock overrides the timestamp source (used by tests).
func WithClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		fs:    afero.NewOsFs(),
		dir:   dir,
		limit: DefaultLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileStore) bucketPath(show string, artifactType model.ArtifactType) string {
	return filepath.Join(s.dir, sanitizeShow(show), string(artifactType)+".json")
}

// load reads a bucket. A missing or corrupt file degrades to an empty bucket
// so one bad write never blocks future appends.
func (s *FileStore) load(path string) []model.HistoryEntry {
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

func (s *FileStore) Append(show string, artifactType model.ArtifactType, payload string) (model.HistoryEntry, error) {
	var empty model.HistoryEntry
	if strings.TrimSpace(payload) == "" {
		return empty, utils.WrapIfNotNil(
			model.NewError(model.KindPersistence, model.ReasonHistoryWrite, "refusing to store an empty payload"),
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.bucketPath(show, artifactType)
	entries := s.load(path)

	entry := model.HistoryEntry{
		ID:         uuid.NewString(),
		Show:       show,
		Type:       artifactType,
		Payload:    payload,
		InsertedAt: s.now().UTC(),
	}
	entries = append(entries, entry)
	if len(entries) > s.limit {
		entries = entries[len(entries)-s.limit:]
	}

	if err := s.writeBucket(path, entries); err != nil {
		return empty, utils.WrapIfNotNil(
			model.WrapError(model.KindPersistence, model.ReasonHistoryWrite, "could not persist history", err),
		)
	}
	return entry, nil
}

func (s *FileStore) writeBucket(path string, entries []model.HistoryEntry) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, path)
}

func (s *FileStore) Recent(show string, artifactType model.ArtifactType, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(s.bucketPath(show, artifactType))
	if len(entries) == 0 {
		return nil, nil
	}

	// Stored oldest-first; callers want newest-first.
	out := make([]model.HistoryEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (s *FileStore) Shows() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		// No data directory yet means no history, not a failure.
		return nil, nil
	}
	shows := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			shows = append(shows, info.Name())
		}
	}
	sort.Strings(shows)
	return shows, nil
}

// Export writes every bucket of a show as one JSON document, newest first
// within each artifact type.
func (s *FileStore) Export(w io.Writer, show string) error {
	types := model.AllArtifactTypes()
	export := make(map[string][]model.HistoryEntry, len(types))
	for _, artifactType := range types {
		entries, err := s.Recent(show, artifactType, s.limit)
		if err != nil {
			return utils.WrapIfNotNil(err)
		}
		if len(entries) > 0 {
			export[string(artifactType)] = entries
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return utils.WrapIfNotNil(
			model.WrapError(model.KindPersistence, model.ReasonHistoryRead, fmt.Sprintf("could not export history for %q", show), err),
		)
	}
	return nil
}
