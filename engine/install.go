package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/crafted-tech/packflow"
	"github.com/crafted-tech/packflow/platform"
)

// arpKeyBase is where Programs-and-Features metadata lives.
const arpKeyBase = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\`

// Runner executes a manifest in install or uninstall mode. The zero value is
// not usable; populate the fields and call Install or Uninstall once.
//
// Execution is strictly sequential. There is no rollback: a file-copy
// failure aborts the run and leaves already-copied files in place, which is
// acceptable because the destination is a fresh directory.
type Runner struct {
	// Manifest drives install mode. Uninstall mode reads the recorded state
	// instead and tolerates a nil Manifest.
	Manifest *packflow.Manifest

	Session Session
	Store   platform.Store

	// Strings resolves localized messages; nil defaults to English.
	Strings *packflow.Strings

	// Log receives step-by-step output; nil discards it.
	Log *logrus.Logger

	// Journal records files whose deletion had to be deferred.
	Journal *platform.Journal

	// PayloadRoot is the build-output tree FileEntry sources resolve
	// against.
	PayloadRoot string

	// StartMenuDir is the resolved Start Menu programs directory.
	StartMenuDir string

	// TempDir overrides the staging directory for the bundled installer.
	TempDir string

	// Progress, when set, receives a percentage and the name of each step.
	Progress func(percent float64, name string)
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log != nil {
		return r.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (r *Runner) strings() *packflow.Strings {
	if r.Strings != nil {
		return r.Strings
	}
	return packflow.NewStrings("en", nil)
}

func (r *Runner) tempDir() string {
	if r.TempDir != "" {
		return r.TempDir
	}
	return os.TempDir()
}

// UninstallerName is the base name of the uninstaller written into the
// install directory.
func UninstallerName() string {
	if runtime.GOOS == "windows" {
		return "uninstall.exe"
	}
	return "uninstall"
}

// rootKey returns the product bookkeeping key.
func rootKey(m *packflow.Manifest) string {
	if m.Product.Publisher != "" {
		return `SOFTWARE\` + m.Product.Publisher + `\` + m.ProductKey()
	}
	return `SOFTWARE\` + m.ProductKey()
}

// Install runs the manifest:
//
//	Init → PrerequisiteCheck → {Abort | Proceed} → CopyFiles →
//	CreateShortcuts → RunBundledInstaller → WriteRegistry →
//	WriteUninstaller → Done
//
// The prerequisite check runs before any file operation; when it fails the
// returned error is a *PrereqError carrying the localized message and
// nothing has been written.
func (r *Runner) Install() error {
	m := r.Manifest
	log := r.logger().WithField("session", r.Session.ID)
	strs := r.strings()

	if p := m.Prereq; p != nil {
		ok, err := evalPrereq(p, r.Store)
		if err != nil {
			return fmt.Errorf("evaluate prerequisite %q: %w", p.Name, err)
		}
		if !ok {
			msg := strs.TF(p.MessageKey, m.Product.Name)
			log.WithField("prerequisite", p.Name).Error(msg)
			return &PrereqError{Name: p.Name, Message: msg}
		}
		log.WithField("prerequisite", p.Name).Info("prerequisite satisfied")
	}

	hive := r.Session.Hive()
	root := rootKey(m)
	existing, _ := r.Store.GetString(hive, root, "DisplayVersion")
	log.Infof("%s %s → %s", DetermineAction(existing, m.Product.Version), m.Product.Name, m.Product.Version)

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own executable: %w", err)
	}

	record := &Record{
		Product:       m.Product.Name,
		ProductKey:    m.ProductKey(),
		Version:       m.Product.Version,
		Language:      r.Session.Language,
		InstallDir:    r.Session.InstallDir,
		Hive:          hive,
		RootKey:       root,
		ComponentsKey: root + `\Components`,
		ARPKey:        arpKeyBase + m.ProductKey(),
		Uninstaller:   filepath.Join(r.Session.InstallDir, UninstallerName()),
	}

	steps := []Step{StepEnsureDir(r.Session.InstallDir)}
	steps = append(steps, r.copyFileSteps(record)...)
	steps = append(steps, r.shortcutSteps(record)...)
	if m.Bundled != nil {
		steps = append(steps, r.bundledStep(log))
	}
	steps = append(steps, r.registrySteps(record)...)
	steps = append(steps, r.uninstallerSteps(record, exe, strs)...)

	if err := runSteps(log, r.Progress, steps); err != nil {
		return err
	}
	log.Info(strs.T("install.complete"))
	return nil
}

// copyFileSteps builds the CopyFiles stage for the selected sections and
// fills in the record as a side channel of the plan.
func (r *Runner) copyFileSteps(record *Record) []Step {
	var steps []Step
	for _, sec := range r.Manifest.Sections {
		if !r.Session.selected(sec.Name, sec.Required) {
			continue
		}
		sr := SectionRecord{Name: sec.Name}
		for _, f := range sec.Files {
			src := filepath.Join(r.PayloadRoot, filepath.FromSlash(f.Source))
			dst := filepath.Join(r.Session.InstallDir, filepath.FromSlash(f.RelDest()))
			steps = append(steps, StepCopyFile(src, dst))
			sr.Files = append(sr.Files, dst)
		}
		record.Sections = append(record.Sections, sr)
	}
	return steps
}

// shortcutSteps builds the CreateShortcuts stage.
func (r *Runner) shortcutSteps(record *Record) []Step {
	var steps []Step
	for _, sec := range r.Manifest.Sections {
		if !r.Session.selected(sec.Name, sec.Required) {
			continue
		}
		sr := r.sectionRecord(record, sec.Name)
		for _, sc := range sec.Shortcuts {
			lnk := r.shortcutPath(sc.Group, sc.Name)
			target := filepath.Join(r.Session.InstallDir, filepath.FromSlash(sc.Target))
			name := sc.Name
			steps = append(steps, Step{
				Name: fmt.Sprintf("Shortcut %s", name),
				Action: func() StepResult {
					err := platform.CreateShortcut(lnk, platform.Shortcut{
						Target:      target,
						Description: name,
					})
					if err != nil {
						return Failed(err)
					}
					return Success("")
				},
			})
			sr.Shortcuts = append(sr.Shortcuts, lnk)
		}
	}
	return steps
}

// bundledStep builds the RunBundledInstaller stage. A subprocess that runs
// but exits nonzero is surfaced as a warning, not a failure; only the
// inability to run it at all (or a concurrent setup holding the lock) fails
// the step.
func (r *Runner) bundledStep(log logrus.FieldLogger) Step {
	b := r.Manifest.Bundled
	return Step{
		Name: fmt.Sprintf("Run %s", filepath.Base(b.Source)),
		Action: func() StepResult {
			result, err := runBundled(b, r.PayloadRoot, r.tempDir())
			if err != nil {
				if errors.Is(err, ErrSetupInProgress) {
					return Failed(err)
				}
				log.WithError(err).Warn("bundled installer could not be run")
				return Skipped(err.Error())
			}
			if result.ExitCode != 0 {
				log.WithField("exitCode", result.ExitCode).
					WithField("log", result.LogPath).
					Warn("bundled installer exited with a nonzero status")
				return Success(fmt.Sprintf("exit code %d (see %s)", result.ExitCode, result.LogPath))
			}
			return Success("")
		},
	}
}

// registrySteps builds the WriteRegistry stage: manifest entries in
// declaration order, then the product bookkeeping values, component flags,
// and Programs-and-Features metadata. Writing the same (hive, key, value)
// twice keeps the later write.
func (r *Runner) registrySteps(record *Record) []Step {
	m := r.Manifest
	hive := record.Hive
	var steps []Step

	for _, sec := range m.Sections {
		if !r.Session.selected(sec.Name, sec.Required) {
			continue
		}
		sr := r.sectionRecord(record, sec.Name)
		for _, entry := range sec.Registry {
			e := entry
			steps = append(steps, SimpleStep(fmt.Sprintf("Registry %s\\%s", e.Key, e.Value), func() error {
				if e.IsDWord {
					return r.Store.SetDWord(e.Hive, e.Key, e.Value, e.DWord)
				}
				return r.Store.SetString(e.Hive, e.Key, e.Value, e.String)
			}))
			sr.Registry = append(sr.Registry, RegistryRef{Hive: e.Hive, Key: e.Key, Value: e.Value})
		}
	}

	steps = append(steps, SimpleStep("Record installation", func() error {
		if err := r.Store.SetString(hive, record.RootKey, "InstallDir", record.InstallDir); err != nil {
			return err
		}
		if err := r.Store.SetString(hive, record.RootKey, "DisplayVersion", record.Version); err != nil {
			return err
		}
		if err := r.Store.SetString(hive, record.RootKey, "Language", record.Language); err != nil {
			return err
		}
		for _, sr := range record.Sections {
			if err := r.Store.SetDWord(hive, record.ComponentsKey, sr.Name, 1); err != nil {
				return err
			}
		}
		return nil
	}))

	steps = append(steps, SimpleStep("Register uninstall entry", func() error {
		values := map[string]string{
			"DisplayName":     m.Product.Name,
			"DisplayVersion":  m.Product.Version,
			"Publisher":       m.Product.Publisher,
			"InstallLocation": record.InstallDir,
			"UninstallString": record.Uninstaller,
			"DisplayIcon":     record.Uninstaller,
		}
		if m.Product.URL != "" {
			values["URLInfoAbout"] = m.Product.URL
		}
		for name, value := range values {
			if err := r.Store.SetString(hive, record.ARPKey, name, value); err != nil {
				return err
			}
		}
		if err := r.Store.SetDWord(hive, record.ARPKey, "NoModify", 1); err != nil {
			return err
		}
		if err := r.Store.SetDWord(hive, record.ARPKey, "NoRepair", 1); err != nil {
			return err
		}
		if m.Product.EstimatedSizeKB > 0 {
			if err := r.Store.SetDWord(hive, record.ARPKey, "EstimatedSize", m.Product.EstimatedSizeKB); err != nil {
				return err
			}
		}
		return nil
	}))

	return steps
}

// uninstallerSteps builds the WriteUninstaller stage: copy this executable
// into the install directory, give it a localized Start Menu shortcut, and
// persist the reverse manifest beside it.
func (r *Runner) uninstallerSteps(record *Record, exe string, strs *packflow.Strings) []Step {
	label := strs.TF("uninstall.label", r.Manifest.Product.Name)
	lnk := r.shortcutPath("", label)
	record.UninstallShortcut = lnk

	return []Step{
		SimpleStep("Write uninstaller", func() error {
			return CopyExecutable(exe, record.Uninstaller)
		}),
		Step{
			Name: "Shortcut " + label,
			Action: func() StepResult {
				err := platform.CreateShortcut(lnk, platform.Shortcut{
					Target:      record.Uninstaller,
					Description: label,
				})
				if err != nil {
					return Failed(err)
				}
				return Success("")
			},
		},
		SimpleStep("Record state", func() error {
			return record.Save(record.InstallDir)
		}),
	}
}

// shortcutPath resolves a shortcut location inside the Start Menu group.
// An empty group means the product's own group.
func (r *Runner) shortcutPath(group, name string) string {
	if group == "" {
		group = r.Manifest.Product.Name
	}
	return filepath.Join(r.StartMenuDir, group, name+platform.ShortcutExt)
}

func (r *Runner) sectionRecord(record *Record, name string) *SectionRecord {
	for i := range record.Sections {
		if record.Sections[i].Name == name {
			return &record.Sections[i]
		}
	}
	record.Sections = append(record.Sections, SectionRecord{Name: name})
	return &record.Sections[len(record.Sections)-1]
}
