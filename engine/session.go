package engine

import (
	"github.com/google/uuid"

	"github.com/crafted-tech/packflow"
	"github.com/crafted-tech/packflow/platform"
)

// Session captures the runtime choices for one setup run: target directory,
// language, elevation level, and component selection. It is created at start,
// treated as immutable, and discarded at exit; nothing in it is persisted.
type Session struct {
	// ID uniquely identifies this run in log output.
	ID string

	// InstallDir is the chosen installation directory.
	InstallDir string

	// Language is the normalized session language code.
	Language string

	// Elevated records whether the process has administrative rights. It
	// decides which store hive receives the bookkeeping entries.
	Elevated bool

	// Sections lists the selected optional sections by name. A nil slice
	// selects every section in the manifest. Required sections are always
	// installed regardless of selection.
	Sections []string
}

// NewSession creates a Session for the given choices, probing the current
// elevation level.
func NewSession(installDir, lang string, sections []string) Session {
	return Session{
		ID:         uuid.NewString(),
		InstallDir: installDir,
		Language:   packflow.NormalizeLanguage(lang),
		Elevated:   platform.IsElevated(),
		Sections:   sections,
	}
}

// Hive returns the store hive matching the session's elevation level:
// machine-wide when elevated, per-user otherwise.
func (s Session) Hive() packflow.Hive {
	if s.Elevated {
		return packflow.HiveMachine
	}
	return packflow.HiveUser
}

// selected reports whether the named section should be processed.
func (s Session) selected(name string, required bool) bool {
	if required || s.Sections == nil {
		return true
	}
	for _, n := range s.Sections {
		if n == name {
			return true
		}
	}
	return false
}
