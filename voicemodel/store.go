package voicemodel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-voz/backend"
	"github.com/RyanBlaney/sonido-voz/features"
	"github.com/RyanBlaney/sonido-voz/logging"
	"github.com/RyanBlaney/sonido-voz/voiceerr"
)

// Hidden prefixes for in-flight writes and displaced models
const (
	tmpPrefix = ".tmp-"
	oldPrefix = ".old-"
)

// suffix length appended to tmp/old names: "-" + 8 hex chars
const suffixLen = 9

// Store keeps one directory per model under a root directory.
//
// Writes go to a hidden sibling directory that is fsynced and then renamed
// into place, so readers never see a partial model. Every id has its own
// RWMutex: Load takes the read lock, Save, Update and Delete the write lock.
type Store struct {
	root          string
	embedding     backend.EmbeddingBackend
	embeddingSize int
	logger        logging.Logger
	now           func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// Open creates the root directory if needed and repairs leftovers of
// interrupted saves. embedding may be nil when the store is only read.
func Open(dir string, embedding backend.EmbeddingBackend, embeddingSize int, logger logging.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.open", "", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.open", "", err)
	}
	if embeddingSize <= 0 {
		return nil, voiceerr.Newf(voiceerr.ErrValidation, "store.open", "", "embedding size must be positive: %d", embeddingSize)
	}

	s := &Store{
		root:          abs,
		embedding:     embedding,
		embeddingSize: embeddingSize,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "voice_model_store",
			"root":      abs,
		}),
		now:   func() time.Time { return time.Now().UTC() },
		locks: make(map[string]*sync.RWMutex),
	}
	if err := s.recover(); err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.open", "", err)
	}
	return s, nil
}

// Root returns the absolute store directory
func (s *Store) Root() string {
	return s.root
}

// EmbeddingSize returns the length of every embedding the store creates
func (s *Store) EmbeddingSize() int {
	return s.embeddingSize
}

// lock returns the mutex for id, creating it on first use. Entries are never
// removed so concurrent holders always share one mutex.
func (s *Store) lock(id string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[id] = l
	}
	return l
}

// ValidateID rejects ids that could escape the store root or collide with
// in-flight writes
func ValidateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("empty model id")
	case len(id) > 128:
		return fmt.Errorf("model id longer than 128 bytes")
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("model id %q may not start with a dot", id)
	case strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0):
		return fmt.Errorf("model id %q contains a path separator", id)
	}
	return nil
}

func (s *Store) dir(id string) string {
	return filepath.Join(s.root, id)
}

// Generate derives a new model from set, persists it and returns it
func (s *Store) Generate(ctx context.Context, set *features.FeatureSet) (*VoiceModel, error) {
	if set == nil {
		return nil, voiceerr.Newf(voiceerr.ErrInput, "store.generate", "", "nil feature set")
	}
	id := uuid.NewString()
	logger := s.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Generate",
		"model_id": id,
	})

	embedding, err := s.embed(ctx, id, set.Mel)
	if err != nil {
		logger.Error(err, "Failed to compute voice embedding")
		return nil, err
	}

	now := s.now()
	m := &VoiceModel{
		ID:        id,
		Embedding: embedding,
		Metadata: Metadata{
			CreatedAt:     now,
			UpdatedAt:     now,
			Version:       FormatVersion,
			SampleRate:    set.SampleRate,
			EmbeddingSize: len(embedding),
		},
	}
	if set.PitchContour != nil {
		m.Pitch = NewPitchStatistics(set.PitchContour)
	}
	if set.Timbre != nil {
		m.Timbre = NewTimbreStatistics(set.Timbre)
	}
	if set.Emotion != nil {
		m.Emotion = make([]float64, len(set.Emotion))
		copy(m.Emotion, set.Emotion)
	}

	if err := s.Save(ctx, m); err != nil {
		return nil, err
	}

	dominant, _ := m.DominantEmotion()
	logger.Info("Voice model created", logging.Fields{
		"voice_type":       m.VoiceType(),
		"dominant_emotion": dominant,
	})
	return m, nil
}

func (s *Store) embed(ctx context.Context, id string, mel backend.MelGrid) ([]float32, error) {
	if mel.Frames() == 0 {
		return make([]float32, s.embeddingSize), nil
	}
	if s.embedding == nil {
		return nil, voiceerr.Newf(voiceerr.ErrBackendUnavailable, "store.generate", id, "no embedding backend configured")
	}

	embedding, err := s.embedding.Embed(ctx, mel)
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrBackendUnavailable, "store.generate", id, err)
	}
	if len(embedding) != s.embeddingSize {
		return nil, voiceerr.Newf(voiceerr.ErrValidation, "store.generate", id,
			"embedding has %d values, want %d", len(embedding), s.embeddingSize)
	}
	return embedding, nil
}

// Load reads the model stored under id
func (s *Store) Load(ctx context.Context, id string) (*VoiceModel, error) {
	if err := ValidateID(id); err != nil {
		return nil, voiceerr.New(voiceerr.ErrModelNotFound, "store.load", id, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := s.lock(id)
	l.RLock()
	defer l.RUnlock()

	return s.load(id)
}

func (s *Store) load(id string) (*VoiceModel, error) {
	dir := s.dir(id)

	metadata, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, voiceerr.New(voiceerr.ErrModelNotFound, "store.load", id, nil)
	}
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.load", id, err)
	}
	params, err := os.ReadFile(filepath.Join(dir, paramsFile))
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.load", id, err)
	}
	embedding, err := os.ReadFile(filepath.Join(dir, embeddingFile))
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.load", id, err)
	}

	m, err := decodeModel(metadata, params, embedding)
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.load", id, err)
	}
	m.ID = id
	return m, nil
}

// Save writes m, replacing any previous version atomically. It stamps
// m.Metadata.UpdatedAt and increments m.Metadata.Revision. On failure the
// previous version stays intact and m is left unchanged.
func (s *Store) Save(ctx context.Context, m *VoiceModel) error {
	if m == nil {
		return voiceerr.Newf(voiceerr.ErrValidation, "store.save", "", "nil model")
	}
	if err := ValidateID(m.ID); err != nil {
		return voiceerr.New(voiceerr.ErrValidation, "store.save", m.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := s.lock(m.ID)
	l.Lock()
	defer l.Unlock()

	return s.save(m)
}

func (s *Store) save(m *VoiceModel) error {
	logger := s.logger.WithFields(logging.Fields{
		"function": "save",
		"model_id": m.ID,
	})

	if m.Metadata.EmbeddingSize > 0 && len(m.Embedding) != m.Metadata.EmbeddingSize {
		return voiceerr.Newf(voiceerr.ErrValidation, "store.save", m.ID,
			"embedding has %d values, model was created with %d", len(m.Embedding), m.Metadata.EmbeddingSize)
	}

	staged := *m
	staged.Metadata.UpdatedAt = s.now()
	staged.Metadata.Revision++
	staged.Metadata.EmbeddingSize = len(m.Embedding)
	if staged.Metadata.Version == "" {
		staged.Metadata.Version = FormatVersion
	}

	if err := s.writeAtomic(&staged); err != nil {
		logger.Error(err, "Failed to save voice model")
		return voiceerr.New(voiceerr.ErrPersistence, "store.save", m.ID, err)
	}

	m.Metadata = staged.Metadata
	logger.Debug("Voice model saved", logging.Fields{"revision": m.Metadata.Revision})
	return nil
}

func (s *Store) writeAtomic(m *VoiceModel) error {
	metadata, err := encodeMetadata(m)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	params, err := encodeParams(m)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	tmp := filepath.Join(s.root, tmpPrefix+m.ID+"-"+randomSuffix())
	if err := os.Mkdir(tmp, 0o755); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(tmp)
		}
	}()

	for name, content := range map[string][]byte{
		metadataFile:  metadata,
		paramsFile:    params,
		embeddingFile: encodeEmbedding(m.Embedding),
	} {
		if err := writeFileSync(filepath.Join(tmp, name), content); err != nil {
			return err
		}
	}
	if err := syncDir(tmp); err != nil {
		return err
	}

	target := s.dir(m.ID)
	old := ""
	if _, err := os.Stat(target); err == nil {
		old = filepath.Join(s.root, oldPrefix+m.ID+"-"+randomSuffix())
		if err := os.Rename(target, old); err != nil {
			return err
		}
	}
	if err := os.Rename(tmp, target); err != nil {
		if old != "" {
			os.Rename(old, target)
		}
		return err
	}
	committed = true

	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			s.logger.Warn("Failed to remove displaced model", logging.Fields{"path": old, "error": err.Error()})
		}
	}
	return syncDir(s.root)
}

func writeFileSync(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen-1]
}

// recover settles hidden directories left by a crash: displaced models are
// restored when their replacement never landed, everything else is removed
func (s *Store) recover() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(s.root, name)

		switch {
		case strings.HasPrefix(name, tmpPrefix):
			s.logger.Warn("Discarding incomplete save", logging.Fields{"path": path})
			if err := os.RemoveAll(path); err != nil {
				return err
			}

		case strings.HasPrefix(name, oldPrefix) && len(name) > len(oldPrefix)+suffixLen:
			id := name[len(oldPrefix) : len(name)-suffixLen]
			if _, err := os.Stat(s.dir(id)); errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("Restoring displaced model", logging.Fields{"model_id": id})
				if err := os.Rename(path, s.dir(id)); err != nil {
					return err
				}
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update loads id, applies fn and saves the result while holding the write
// lock for id. Nothing is written when fn returns an error or changed=false.
func (s *Store) Update(ctx context.Context, id string, fn func(m *VoiceModel) (changed bool, err error)) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, voiceerr.New(voiceerr.ErrModelNotFound, "store.update", id, err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	m, err := s.load(id)
	if err != nil {
		return false, err
	}
	changed, err := fn(m)
	if err != nil || !changed {
		return false, err
	}
	if err := s.save(m); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the model stored under id. It reports false for ids that
// do not exist.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if ValidateID(id) != nil {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	dir := s.dir(id)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, voiceerr.New(voiceerr.ErrPersistence, "store.delete", id, err)
	}

	s.logger.Info("Voice model deleted", logging.Fields{"function": "Delete", "model_id": id})
	return true, nil
}

// List returns the ids of all stored models in lexical order
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, voiceerr.New(voiceerr.ErrPersistence, "store.list", "", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}
