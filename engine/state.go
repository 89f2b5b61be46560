package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crafted-tech/packflow"
)

// RecordFileName is the state file written next to the uninstaller. It is
// the reverse manifest: everything the uninstaller needs to undo the install.
const RecordFileName = "setup-record.json"

// RegistryRef locates one store value written at install time.
type RegistryRef struct {
	Hive  packflow.Hive `json:"hive"`
	Key   string        `json:"key"`
	Value string        `json:"value"`
}

// SectionRecord lists the artifacts one installed section produced,
// in install order.
type SectionRecord struct {
	Name      string        `json:"name"`
	Files     []string      `json:"files,omitempty"`
	Shortcuts []string      `json:"shortcuts,omitempty"`
	Registry  []RegistryRef `json:"registry,omitempty"`
}

// Record is the persisted installation state: which sections were installed,
// every path and store value they produced, and the bookkeeping keys. The
// uninstaller replays it in reverse.
type Record struct {
	Product    string        `json:"product"`
	ProductKey string        `json:"productKey"`
	Version    string        `json:"version"`
	Language   string        `json:"language"`
	InstallDir string        `json:"installDir"`
	Hive       packflow.Hive `json:"hive"`

	// RootKey holds InstallDir/DisplayVersion/Language values;
	// ComponentsKey holds one DWORD flag per installed section;
	// ARPKey is the Programs-and-Features entry.
	RootKey       string `json:"rootKey"`
	ComponentsKey string `json:"componentsKey"`
	ARPKey        string `json:"arpKey"`

	Sections []SectionRecord `json:"sections"`

	Uninstaller       string `json:"uninstaller"`
	UninstallShortcut string `json:"uninstallShortcut,omitempty"`
}

// Save serializes the record as JSON into dir.
func (r *Record) Save(dir string) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, RecordFileName), raw, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// LoadRecord reads the installation record from dir.
func LoadRecord(dir string) (*Record, error) {
	raw, err := os.ReadFile(filepath.Join(dir, RecordFileName))
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &r, nil
}
