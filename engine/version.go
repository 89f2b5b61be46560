package engine

import (
	"strconv"
	"strings"
)

// InstallAction classifies a run against any existing installation of the
// same product.
type InstallAction int

const (
	ActionFreshInstall InstallAction = iota
	ActionUpgrade
	ActionDowngrade
	ActionReinstall
)

// String returns the action name.
func (a InstallAction) String() string {
	switch a {
	case ActionFreshInstall:
		return "Fresh Install"
	case ActionUpgrade:
		return "Upgrade"
	case ActionDowngrade:
		return "Downgrade"
	case ActionReinstall:
		return "Reinstall"
	default:
		return "Install"
	}
}

// DetermineAction classifies the run given the recorded existing version
// (empty when the product is not installed) and the incoming version.
func DetermineAction(existing, incoming string) InstallAction {
	if existing == "" {
		return ActionFreshInstall
	}
	switch cmp := CompareVersions(incoming, existing); {
	case cmp > 0:
		return ActionUpgrade
	case cmp < 0:
		return ActionDowngrade
	default:
		return ActionReinstall
	}
}

// CompareVersions compares dotted version strings numerically, part by part.
// Missing parts count as zero ("1.2" == "1.2.0"); a leading "v" and
// non-numeric suffixes ("3-beta") are ignored.
// Returns negative, zero, or positive as v1 is less than, equal to, or
// greater than v2.
func CompareVersions(v1, v2 string) int {
	p1 := strings.Split(strings.TrimPrefix(strings.TrimPrefix(v1, "v"), "V"), ".")
	p2 := strings.Split(strings.TrimPrefix(strings.TrimPrefix(v2, "v"), "V"), ".")

	n := len(p1)
	if len(p2) > n {
		n = len(p2)
	}
	for i := 0; i < n; i++ {
		a := versionPart(p1, i)
		b := versionPart(p2, i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	p := parts[i]
	if idx := strings.IndexAny(p, "-+_"); idx > 0 {
		p = p[:idx]
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return 0
	}
	return n
}
