package packflow

import (
	"fmt"
	"path"
	"strings"
)

// Hive identifies a top-level branch of the registry-style store.
type Hive string

const (
	// HiveMachine is the machine-wide branch (HKEY_LOCAL_MACHINE on Windows).
	HiveMachine Hive = "HKLM"
	// HiveUser is the per-user branch (HKEY_CURRENT_USER on Windows).
	HiveUser Hive = "HKCU"
)

// ParseHive converts a manifest hive string into a Hive.
func ParseHive(s string) (Hive, error) {
	switch strings.ToUpper(s) {
	case "HKLM", "HKEY_LOCAL_MACHINE":
		return HiveMachine, nil
	case "HKCU", "HKEY_CURRENT_USER":
		return HiveUser, nil
	}
	return "", fmt.Errorf("unknown hive %q", s)
}

// Product describes the installed application for store bookkeeping and
// Programs-and-Features metadata.
type Product struct {
	// Name shown to the user and used for the Start Menu group.
	Name string

	// Key uniquely identifies this product in the store
	// (e.g., "CraftedTech.AdminClient"). Defaults to Name with spaces removed.
	Key string

	Version   string
	Publisher string
	URL       string

	// InstallDir is the default installation directory. May be overridden
	// per session.
	InstallDir string

	// EstimatedSizeKB is shown in Programs and Features. Zero omits it.
	EstimatedSizeKB uint32
}

// FileEntry is one file to place during installation.
// Source is relative to the payload root; Destination is a directory
// relative to the install directory ("" for the root).
type FileEntry struct {
	Source      string
	Destination string

	// Locale is an optional locale subdirectory tag. When set, the file is
	// placed under Destination/Locale instead of Destination.
	Locale string
}

// RelDest returns the entry's destination path relative to the install
// directory, including the locale subdirectory and the source base name.
func (f FileEntry) RelDest() string {
	dir := f.Destination
	if f.Locale != "" {
		dir = path.Join(dir, f.Locale)
	}
	return path.Join(dir, path.Base(f.Source))
}

// RegistryEntry is one value to write during installation and delete,
// in reverse order, during uninstallation. Entries are keyed by
// (hive, key, value); a later entry for the same triple wins.
type RegistryEntry struct {
	Hive  Hive
	Key   string
	Value string

	// Exactly one of String/DWord is meaningful, selected by IsDWord.
	String  string
	DWord   uint32
	IsDWord bool
}

// ShortcutEntry is one Start Menu shortcut to create.
type ShortcutEntry struct {
	// Target is the executable path relative to the install directory.
	Target string

	// Name is the display name (shortcut file base name).
	Name string

	// Group is the Start Menu folder. Empty means the product name.
	Group string
}

// Section is a named, independently selectable group of install actions.
// Install order is declaration order; uninstall reverses it.
type Section struct {
	Name      string
	Required  bool
	Files     []FileEntry
	Registry  []RegistryEntry
	Shortcuts []ShortcutEntry
}

// PrereqKind selects how a PrerequisiteCheck is evaluated.
type PrereqKind string

const (
	// PrereqRegistryMin passes when a DWORD store value is at least Minimum.
	// Used for minimum runtime / service-pack level checks.
	PrereqRegistryMin PrereqKind = "registry-min"
	// PrereqFileExists passes when Path exists on disk.
	PrereqFileExists PrereqKind = "file-exists"
)

// PrerequisiteCheck is a named system condition verified before any install
// action runs. On failure the session aborts with a localized message.
type PrerequisiteCheck struct {
	Name string
	Kind PrereqKind

	// For PrereqRegistryMin.
	Hive    Hive
	Key     string
	Value   string
	Minimum uint32

	// For PrereqFileExists.
	Path string

	// MessageKey is the translation key (or literal text) shown on failure.
	MessageKey string
}

// BundledInstaller describes a secondary installer shipped in the payload
// and invoked as an external process during installation.
type BundledInstaller struct {
	// Source is the installer executable, relative to the payload root.
	Source string

	// Args are passed verbatim, except that the token "${log}" is replaced
	// with the resolved log file path.
	Args []string

	// LogFile is the log file name the subprocess writes in the temp
	// directory. Empty disables the "${log}" substitution.
	LogFile string

	// Mutex names the machine-wide lock acquired before launching, so two
	// concurrent setup runs cannot race on the same temporary file.
	Mutex string
}

// Manifest is the declarative description of everything an installer
// applies: files, store entries, shortcuts, at most one prerequisite check,
// and at most one bundled installer.
type Manifest struct {
	Product  Product
	Prereq   *PrerequisiteCheck
	Sections []Section
	Bundled  *BundledInstaller
}

// Section returns the named section, or nil.
func (m *Manifest) Section(name string) *Section {
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			return &m.Sections[i]
		}
	}
	return nil
}

// SectionNames returns section names in declaration order.
func (m *Manifest) SectionNames() []string {
	names := make([]string, len(m.Sections))
	for i, s := range m.Sections {
		names[i] = s.Name
	}
	return names
}

// Validate checks manifest invariants:
//   - product name and version are set
//   - section names are unique and non-empty
//   - every file destination path is unique across all sections
//   - bundled installer and prerequisite fields are complete
func (m *Manifest) Validate() error {
	if m.Product.Name == "" {
		return fmt.Errorf("product: name is required")
	}
	if m.Product.Version == "" {
		return fmt.Errorf("product: version is required")
	}

	seenSections := make(map[string]bool)
	seenDests := make(map[string]string)
	for _, s := range m.Sections {
		if s.Name == "" {
			return fmt.Errorf("section: name is required")
		}
		if seenSections[s.Name] {
			return fmt.Errorf("section %q: duplicate section name", s.Name)
		}
		seenSections[s.Name] = true

		for _, f := range s.Files {
			if f.Source == "" {
				return fmt.Errorf("section %q: file with empty source", s.Name)
			}
			dest := f.RelDest()
			if prev, dup := seenDests[dest]; dup {
				return fmt.Errorf("section %q: destination %q already used by section %q", s.Name, dest, prev)
			}
			seenDests[dest] = s.Name
		}

		for _, r := range s.Registry {
			if r.Key == "" || r.Value == "" {
				return fmt.Errorf("section %q: registry entry needs key and value", s.Name)
			}
		}

		for _, sc := range s.Shortcuts {
			if sc.Target == "" || sc.Name == "" {
				return fmt.Errorf("section %q: shortcut needs target and name", s.Name)
			}
		}
	}

	if p := m.Prereq; p != nil {
		switch p.Kind {
		case PrereqRegistryMin:
			if p.Key == "" || p.Value == "" {
				return fmt.Errorf("prerequisite %q: registry-min needs key and value", p.Name)
			}
		case PrereqFileExists:
			if p.Path == "" {
				return fmt.Errorf("prerequisite %q: file-exists needs path", p.Name)
			}
		default:
			return fmt.Errorf("prerequisite %q: unknown kind %q", p.Name, p.Kind)
		}
	}

	if b := m.Bundled; b != nil {
		if b.Source == "" {
			return fmt.Errorf("bundled_installer: source is required")
		}
		if b.Mutex == "" {
			return fmt.Errorf("bundled_installer: mutex is required")
		}
	}

	return nil
}

// ProductKey returns the store key for this product, deriving one from the
// product name when the manifest does not set it.
func (m *Manifest) ProductKey() string {
	if m.Product.Key != "" {
		return m.Product.Key
	}
	return strings.ReplaceAll(m.Product.Name, " ", "")
}
