package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"pickme/internal/mirror/interfaces"
	"pickme/internal/providers"
	"pickme/internal/structures"

	json "github.com/goccy/go-json"
)

const fileFormatVersion = 2

// envelope is the on-disk layout: every mirrored key with its JSON value.
type envelope struct {
	Version int                        `json:"version"`
	Entries map[string]json.RawMessage `json:"entries"`
}

type FileManager struct {
	memory     *MemoryMirror
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	key        string
}

func NewFileManager(conf *structures.Config, compressor interfaces.CompressorInterface, memory *MemoryMirror, logger providers.Logger) *FileManager {
	return &FileManager{
		memory:     memory,
		compressor: compressor,
		logger:     logger,
		key:        conf.Mirror.Key,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	entries := f.memory.Snapshot()
	env := envelope{Version: fileFormatVersion, Entries: make(map[string]json.RawMessage, len(entries))}
	for key, value := range entries {
		if !json.Valid(value) {
			f.logger.Warnf(providers.TypeState, "Skipping non-JSON mirror entry %q", key)
			continue
		}
		env.Entries[key] = value
	}

	err := f.write(fileName, env)
	if err != nil {
		f.memory.MarkDirty()
	}
	return err
}

func (f *FileManager) write(fileName string, env envelope) error {
	jsonData, err := json.Marshal(env)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(fileName); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile restores the memory tier. A missing file is not an error. Both
// the compressed envelope and a plain JSON state file (the pre-envelope
// layout, stored under the configured key) are understood.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("mirror file %s: %w", fileName, err)
	}

	var env envelope
	if err := json.Unmarshal(decompressed, &env); err == nil && env.Version >= fileFormatVersion && env.Entries != nil {
		entries := make(map[string][]byte, len(env.Entries))
		for key, value := range env.Entries {
			entries[key] = value
		}
		return f.memory.Load(entries)
	}

	f.logger.Warnf(providers.TypeState, "Mirror file %s is not an envelope, trying bare state layout", fileName)
	var bare map[string]any
	if err := json.Unmarshal(decompressed, &bare); err != nil {
		f.logger.Warnf(providers.TypeState, "Migration failed")
		return fmt.Errorf("mirror file %s: %w", fileName, err)
	}
	f.logger.Warnf(providers.TypeState, "Migration from bare state layout successful")
	return f.memory.Load(map[string][]byte{f.key: decompressed})
}
