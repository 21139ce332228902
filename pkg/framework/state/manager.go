// Package state handles plugin state persistence: parameter snapshots in a
// small binary format, plus the string key/value states the host passes
// through (UI mode, histogram session name).
package state

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/auricle-audio/mastergo/pkg/framework/param"
)

// stateMagic identifies a serialized state blob.
const stateMagic = "MSTRGO"

// Manager handles plugin state saving and loading.
type Manager struct {
	version  uint32
	registry *param.Registry
}

// NewManager creates a state manager over a parameter registry.
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  1,
		registry: registry,
	}
}

// Save writes the plugin state to w.
func (m *Manager) Save(w io.Writer) error {
	if _, err := w.Write([]byte(stateMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, m.registry.Count()); err != nil {
		return err
	}
	for _, p := range m.registry.All() {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}
	return nil
}

// Load reads plugin state from r. Unknown parameter IDs are skipped so
// older blobs keep loading after parameters are added.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(stateMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if string(header) != stateMagic {
		return fmt.Errorf("state: invalid format")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version > m.version {
		return fmt.Errorf("state: version %d is newer than supported %d", version, m.version)
	}

	var paramCount int32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return err
	}
	for i := int32(0); i < paramCount; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return err
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return err
		}
		if p := m.registry.Get(id); p != nil {
			p.SetValue(value)
		}
	}
	return nil
}
