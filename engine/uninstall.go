package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crafted-tech/packflow/platform"
)

// ErrNotInstalled is returned when uninstall mode finds no installation
// record in the target directory.
var ErrNotInstalled = errors.New("no installation record found")

// SelectedSections maps recorded component flags to the set of section names
// to process, preserving the given order. A section is selected when its
// flag is present and nonzero.
func SelectedSections(order []string, flags map[string]uint32) []string {
	var out []string
	for _, name := range order {
		if flags[name] != 0 {
			out = append(out, name)
		}
	}
	return out
}

// Uninstall replays the recorded installation in reverse: files and
// shortcuts of the selected sections in reverse install order, then store
// entries, then the bookkeeping keys, the record itself, the uninstaller,
// and finally any now-empty directories. Files that cannot be deleted
// because they are in use are handed to the pending-deletion journal instead
// of failing the run.
func (r *Runner) Uninstall() error {
	log := r.logger().WithField("session", r.Session.ID)
	strs := r.strings()

	record, err := LoadRecord(r.Session.InstallDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotInstalled
		}
		return err
	}

	// Component selection comes from the install-time store record, not
	// from this session's flags.
	flags := make(map[string]uint32, len(record.Sections))
	order := make([]string, 0, len(record.Sections))
	for _, sr := range record.Sections {
		order = append(order, sr.Name)
		if v, err := r.Store.GetDWord(record.Hive, record.ComponentsKey, sr.Name); err == nil {
			flags[sr.Name] = v
		}
	}
	selected := make(map[string]bool)
	for _, name := range SelectedSections(order, flags) {
		selected[name] = true
	}
	log.Infof("uninstalling %s %s (%d of %d sections)", record.Product, record.Version, len(selected), len(record.Sections))

	var steps []Step

	// Sections in reverse install order, artifacts within each reversed too.
	for i := len(record.Sections) - 1; i >= 0; i-- {
		sr := record.Sections[i]
		if !selected[sr.Name] {
			continue
		}
		for j := len(sr.Shortcuts) - 1; j >= 0; j-- {
			steps = append(steps, r.stepDeleteShortcut(sr.Shortcuts[j]))
		}
		for j := len(sr.Files) - 1; j >= 0; j-- {
			steps = append(steps, r.stepDeleteFile(sr.Files[j]))
		}
		for j := len(sr.Registry) - 1; j >= 0; j-- {
			ref := sr.Registry[j]
			steps = append(steps, SimpleStep(fmt.Sprintf("Registry %s\\%s", ref.Key, ref.Value), func() error {
				return r.Store.DeleteValue(ref.Hive, ref.Key, ref.Value)
			}))
		}
	}

	steps = append(steps, SimpleStep("Remove installation record", func() error {
		for _, sr := range record.Sections {
			if !selected[sr.Name] {
				continue
			}
			if err := r.Store.DeleteValue(record.Hive, record.ComponentsKey, sr.Name); err != nil {
				return err
			}
		}
		if len(selected) < len(record.Sections) {
			// Some sections stay installed; keep the bookkeeping keys.
			return nil
		}
		if err := r.Store.DeleteKey(record.Hive, record.ComponentsKey); err != nil {
			return err
		}
		if err := r.Store.DeleteKey(record.Hive, record.RootKey); err != nil {
			return err
		}
		return r.Store.DeleteKey(record.Hive, record.ARPKey)
	}))

	// A partial uninstall leaves the record, the uninstall shortcut, and
	// the uninstaller in place for the sections that remain.
	if len(selected) == len(record.Sections) {
		if record.UninstallShortcut != "" {
			steps = append(steps, r.stepDeleteShortcut(record.UninstallShortcut))
		}

		steps = append(steps, SimpleStep("Remove state file", func() error {
			err := os.Remove(filepath.Join(record.InstallDir, RecordFileName))
			if err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		}))

		// The uninstaller is usually the running executable; deletion
		// defers.
		steps = append(steps, r.stepDeleteFile(record.Uninstaller))
	}

	steps = append(steps, Step{
		Name: "Remove empty directories",
		Action: func() StepResult {
			removeEmptyDirs(record.InstallDir)
			return Success("")
		},
	})

	if err := runSteps(log, r.Progress, steps); err != nil {
		return err
	}
	log.Info(strs.T("uninstall.complete"))
	return nil
}

// stepDeleteFile deletes a file, deferring to the pending-deletion journal
// when the file is in use instead of failing the uninstall.
func (r *Runner) stepDeleteFile(path string) Step {
	return Step{
		Name: fmt.Sprintf("Delete %s", filepath.Base(path)),
		Action: func() StepResult {
			err := os.Remove(path)
			if err == nil || os.IsNotExist(err) {
				if os.IsNotExist(err) {
					return Skipped("not found")
				}
				return Success("")
			}
			if r.Journal == nil {
				return Failed(err)
			}
			if jerr := r.Journal.Add(path); jerr != nil {
				return Failed(jerr)
			}
			return Skipped("in use, deletion deferred")
		},
	}
}

func (r *Runner) stepDeleteShortcut(path string) Step {
	return Step{
		Name: fmt.Sprintf("Remove shortcut %s", filepath.Base(path)),
		Action: func() StepResult {
			if err := platform.DeleteShortcut(path); err != nil {
				return Failed(err)
			}
			// Drop the Start Menu group folder if it is empty now.
			_ = os.Remove(filepath.Dir(path))
			return Success("")
		},
	}
}
