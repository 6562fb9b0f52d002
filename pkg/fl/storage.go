package fl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	DefaultModelName = "global_model"
	backupInfix      = "_backup_v"
)

var _ ArtifactStore = (*FileStore)(nil)

// writeFile persists every model, backup and round file.
var writeFile = writeFileAtomic

// FileStore keeps the current model artifact in memory and on disk. The
// canonical file is only ever replaced by rename, so readers of the file and
// of Current never observe a partially written artifact.
type FileStore struct {
	modelsDir string
	roundsDir string
	name      string
	current   ModelArtifact
	loaded    bool
	mu        sync.RWMutex
}

type StoreConfig struct {
	ModelsDir      string
	RoundsDir      string
	ModelName      string
	BootstrapEmpty bool
	InitialParams  Params
}

func NewFileStore(cfg StoreConfig) (*FileStore, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	if err := os.MkdirAll(cfg.ModelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create models directory: %w", err)
	}
	if cfg.RoundsDir != "" {
		if err := os.MkdirAll(cfg.RoundsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create rounds directory: %w", err)
		}
	}

	s := &FileStore{
		modelsDir: cfg.ModelsDir,
		roundsDir: cfg.RoundsDir,
		name:      cfg.ModelName,
	}

	artifact, err := s.load()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && cfg.BootstrapEmpty:
		artifact = ModelArtifact{
			Params:    cfg.InitialParams.Clone(),
			Version:   InitialVersion,
			UpdatedAt: time.Now().UTC(),
		}
		if err := writeJSONAtomic(s.modelPath(), artifact); err != nil {
			return nil, fmt.Errorf("%w: failed to bootstrap model: %w", ErrStore, err)
		}
	default:
		return nil, fmt.Errorf("%w: %w", ErrNotLoaded, err)
	}

	s.current = artifact
	s.loaded = true

	return s, nil
}

func (s *FileStore) Current() ModelArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.current
	a.Params = s.current.Params.Clone()

	return a
}

func (s *FileStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}

// Replace backs up the persisted artifact under the outgoing update count,
// then persists params as the next version. On failure the previously
// committed artifact stays current.
func (s *FileStore) Replace(params Params) (ModelArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	next := ModelArtifact{
		Params:      params.Clone(),
		UpdateCount: prev.UpdateCount + 1,
		Version:     VersionFor(prev.UpdateCount + 1),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.backup(prev.UpdateCount); err != nil {
		return ModelArtifact{}, fmt.Errorf("%w: backup failed: %w", ErrStore, err)
	}

	if err := writeJSONAtomic(s.modelPath(), next); err != nil {
		return ModelArtifact{}, fmt.Errorf("%w: write failed: %w", ErrStore, err)
	}

	s.current = next

	return next, nil
}

func (s *FileStore) ListBackups() ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.modelsDir)
	if err != nil {
		return nil, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), s.name+backupInfix+"%d.json", &version); err == nil {
			versions = append(versions, version)
		}
	}
	sort.Ints(versions)

	return versions, nil
}

func (s *FileStore) SaveRound(state RoundState) error {
	if s.roundsDir == "" {
		return fmt.Errorf("%w: rounds directory not configured", ErrStore)
	}
	if !ValidRoundID(state.RoundID) {
		return fmt.Errorf("invalid roundID: %q", state.RoundID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSONAtomic(s.roundPath(state.RoundID), state)
}

func (s *FileStore) LoadRound(roundID string) (RoundState, error) {
	if !ValidRoundID(roundID) || s.roundsDir == "" {
		return RoundState{}, fmt.Errorf("invalid roundID: %q", roundID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.roundPath(roundID))
	if err != nil {
		return RoundState{}, fmt.Errorf("failed to read round file: %w", err)
	}

	var state RoundState
	if err := json.Unmarshal(data, &state); err != nil {
		return RoundState{}, fmt.Errorf("failed to unmarshal round state: %w", err)
	}

	return state, nil
}

func (s *FileStore) modelPath() string {
	return filepath.Join(s.modelsDir, s.name+".json")
}

func (s *FileStore) roundPath(roundID string) string {
	return filepath.Join(s.roundsDir, fmt.Sprintf("round_%s.json", roundID))
}

func (s *FileStore) backupPath(updateCount int) string {
	return filepath.Join(s.modelsDir, fmt.Sprintf("%s%s%d.json", s.name, backupInfix, updateCount))
}

func (s *FileStore) load() (ModelArtifact, error) {
	data, err := os.ReadFile(s.modelPath())
	if err != nil {
		return ModelArtifact{}, err
	}

	var a ModelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return ModelArtifact{}, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	if a.Version == "" {
		a.Version = VersionFor(a.UpdateCount)
	}

	return a, nil
}

func (s *FileStore) backup(updateCount int) error {
	data, err := os.ReadFile(s.modelPath())
	if err != nil {
		return err
	}

	return writeFile(s.backupPath(updateCount), data)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	return writeFile(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return err
	}

	return nil
}

// ValidRoundID reports whether roundID is non-empty and made only of
// characters that are safe in a file name.
func ValidRoundID(roundID string) bool {
	if roundID == "" {
		return false
	}
	for _, r := range roundID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}

		return false
	}

	return true
}
