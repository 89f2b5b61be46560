package platform

// Shortcut describes a launcher shortcut. On Windows this becomes a .lnk
// file; elsewhere a small desktop-entry file with the same fields.
type Shortcut struct {
	Target      string // Path to the target executable
	Arguments   string // Command-line arguments (optional)
	WorkingDir  string // Working directory (optional, defaults to target's directory)
	Description string // Tooltip description (optional)
	IconPath    string // Path to icon file (optional, defaults to target)
}
