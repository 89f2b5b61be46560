package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/crafted-tech/packflow"
	"github.com/crafted-tech/packflow/platform"
)

// PrereqError reports a failed prerequisite check. Message is already
// localized to the session language; nothing has been written when it is
// returned.
type PrereqError struct {
	Name    string
	Message string
}

func (e *PrereqError) Error() string {
	return fmt.Sprintf("prerequisite %q not met: %s", e.Name, e.Message)
}

// evalPrereq evaluates a prerequisite check against the store and the
// filesystem. It returns whether the condition holds; an error means the
// check itself could not be evaluated.
func evalPrereq(p *packflow.PrerequisiteCheck, store platform.Store) (bool, error) {
	switch p.Kind {
	case packflow.PrereqRegistryMin:
		v, err := store.GetDWord(p.Hive, p.Key, p.Value)
		if err != nil {
			if errors.Is(err, platform.ErrNotExist) {
				return false, nil
			}
			return false, err
		}
		return v >= p.Minimum, nil

	case packflow.PrereqFileExists:
		_, err := os.Stat(p.Path)
		if err == nil {
			return true, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return false, fmt.Errorf("unknown prerequisite kind %q", p.Kind)
}
