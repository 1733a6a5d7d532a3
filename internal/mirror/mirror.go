package mirror

import (
	"errors"
	"pickme/internal/structures"
)

const (
	ModeNone   = "none"
	ModeMemory = "memory"
	ModeFile   = "file"
)

var ErrNotFound = errors.New("mirror: key not found")

// MirrorInterface is the local key/value mirror of the canonical state.
type MirrorInterface interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// NewMirror selects the mirror for the configured mode. The file mode shares
// the memory tier with the FileManager that persists it.
func NewMirror(conf *structures.Config, memory *MemoryMirror) MirrorInterface {
	switch conf.Mirror.Mode {
	case ModeMemory, ModeFile:
		return memory
	default:
		return &noopMirror{}
	}
}

type noopMirror struct{}

func (n *noopMirror) Get(_ string) ([]byte, error) { return nil, ErrNotFound }
func (n *noopMirror) Set(_ string, _ []byte) error { return nil }
