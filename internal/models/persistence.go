package models

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SaveVersion is the save format written by this build.
const SaveVersion = 1

// DefaultSavePath is where the save slot lives when nothing else is configured.
const DefaultSavePath = "savegame.yaml"

// ErrNoSave is wrapped by LoadError when no save exists yet.
var ErrNoSave = errors.New("no saved game")

// LoadError reports a save that is missing, corrupt or of an unknown shape.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type saveFile struct {
	Version   int        `yaml:"version"`
	SessionID string     `yaml:"session_id"`
	Scene     SceneState `yaml:"scene_state"`
	SavedAt   time.Time  `yaml:"saved_at"`
	Player    savePlayer `yaml:"player"`
}

type savePlayer struct {
	Inventory []Item `yaml:"inventory"`
}

// MarshalSave encodes a record in the YAML save format.
func MarshalSave(rec SaveRecord) ([]byte, error) {
	return yaml.Marshal(saveFile{
		Version:   SaveVersion,
		SessionID: rec.SessionID,
		Scene:     rec.Scene,
		SavedAt:   rec.SavedAt.UTC(),
		Player:    savePlayer{Inventory: rec.Player.Inventory.List()},
	})
}

// UnmarshalSave decodes a record from the YAML save format. Unknown fields,
// a missing player or a different version are rejected. The scene state is
// returned as written so callers can decide what an unknown scene means.
func UnmarshalSave(data []byte) (SaveRecord, error) {
	var sf struct {
		Version   int         `yaml:"version"`
		SessionID string      `yaml:"session_id"`
		Scene     SceneState  `yaml:"scene_state"`
		SavedAt   time.Time   `yaml:"saved_at"`
		Player    *savePlayer `yaml:"player"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return SaveRecord{}, fmt.Errorf("decode save: %w", err)
	}
	if sf.Version != SaveVersion {
		return SaveRecord{}, fmt.Errorf("unsupported save version %d", sf.Version)
	}
	if sf.Player == nil {
		return SaveRecord{}, errors.New("save has no player")
	}
	if sf.Scene == "" {
		return SaveRecord{}, errors.New("save has no scene state")
	}
	return SaveRecord{
		SessionID: sf.SessionID,
		Player:    Player{Inventory: NewInventory(sf.Player.Inventory...)},
		Scene:     sf.Scene,
		SavedAt:   sf.SavedAt,
	}, nil
}

// FileStore keeps the single save slot in a YAML file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store writing to path, or DefaultSavePath if empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultSavePath
	}
	return &FileStore{Path: path}
}

// Save overwrites the save slot with rec.
func (s *FileStore) Save(_ context.Context, rec SaveRecord) error {
	data, err := MarshalSave(rec)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Write next to the target and rename so a failed write never leaves a
	// half-written slot behind.
	tmp, err := os.CreateTemp(dir, ".savegame-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

// Load reads the save slot. Every failure is a *LoadError.
func (s *FileStore) Load(_ context.Context) (SaveRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = ErrNoSave
		}
		return SaveRecord{}, &LoadError{Source: s.Path, Err: err}
	}
	rec, err := UnmarshalSave(data)
	if err != nil {
		return SaveRecord{}, &LoadError{Source: s.Path, Err: err}
	}
	return rec, nil
}
