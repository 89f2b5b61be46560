package platform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Journal records files that could not be deleted because they were in use.
// Entries persist until a later run drains them, so a locked file is handled
// as a pending deletion instead of failing the uninstall. On Windows each
// entry is additionally scheduled with the OS for deletion on reboot.
type Journal struct {
	mu      sync.Mutex
	path    string
	entries []string
}

// OpenJournal opens or creates a pending-deletion journal at path.
func OpenJournal(path string) (*Journal, error) {
	j := &Journal{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &j.entries); err != nil {
			return nil, fmt.Errorf("parse journal %s: %w", path, err)
		}
	}
	return j, nil
}

// DefaultJournal opens the journal at its standard per-user location.
func DefaultJournal() (*Journal, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return OpenJournal(filepath.Join(dir, "packflow", "pending-deletes.json"))
}

// Add records a file for later deletion and schedules it with the OS where
// that is supported.
func (j *Journal) Add(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range j.entries {
		if e == path {
			return nil
		}
	}
	j.entries = append(j.entries, path)
	if err := j.flushLocked(); err != nil {
		return err
	}
	scheduleRebootDelete(path)
	return nil
}

// Pending returns the files still awaiting deletion.
func (j *Journal) Pending() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// Drain retries every pending deletion. Files that are gone already count as
// deleted. Files still locked stay in the journal. Returns the paths removed
// in this pass. Call this early at process start.
func (j *Journal) Drain() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	var deleted, remaining []string
	for _, path := range j.entries {
		err := os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			deleted = append(deleted, path)
			continue
		}
		remaining = append(remaining, path)
	}
	j.entries = remaining
	_ = j.flushLocked()
	return deleted
}

func (j *Journal) flushLocked() error {
	if len(j.entries) == 0 {
		if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove journal: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(j.entries)
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}
	if err := os.WriteFile(j.path, raw, 0644); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}
