// Command packflow reads a declarative setup manifest and runs it in install
// or uninstall mode. During install it copies itself into the target
// directory as the uninstaller; a binary whose name starts with "uninstall"
// therefore defaults to uninstall mode for its own directory.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crafted-tech/packflow"
	"github.com/crafted-tech/packflow/engine"
	"github.com/crafted-tech/packflow/platform"
)

const (
	exitFailure = 1
	exitPrereq  = 3
)

var (
	manifestPath string
	payloadRoot  string
	installDir   string
	language     string
	sections     []string

	rootCmd = &cobra.Command{
		Use:          "packflow",
		Short:        "manifest-driven installer",
		SilenceUsage: true,
	}
)

// langHelp lists the supported --lang values from the built-in tables.
func langHelp() string {
	var codes []string
	for _, l := range packflow.Languages() {
		codes = append(codes, l.Code)
	}
	return "message language: " + strings.Join(codes, ", ") + " (default: $LANG)"
}

func init() {
	installCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "setup.hcl", "setup manifest file")
	installCmd.Flags().StringVar(&payloadRoot, "payload", "", "payload root the manifest sources resolve against (default: manifest directory)")
	installCmd.Flags().StringVarP(&installDir, "dir", "d", "", "installation directory (default: manifest or platform default)")
	installCmd.Flags().StringVarP(&language, "lang", "l", "", langHelp())
	installCmd.Flags().StringSliceVar(&sections, "sections", nil, "optional sections to install (default: all)")

	uninstallCmd.Flags().StringVarP(&installDir, "dir", "d", "", "installation directory (default: this executable's directory)")
	uninstallCmd.Flags().StringVarP(&language, "lang", "l", "", langHelp())

	validateCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "setup.hcl", "setup manifest file")

	rootCmd.AddCommand(installCmd, uninstallCmd, validateCmd)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the manifest in install mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := packflow.Load(manifestPath)
		if err != nil {
			return err
		}

		if payloadRoot == "" {
			payloadRoot = filepath.Dir(manifestPath)
		}
		dir := installDir
		if dir == "" {
			dir = m.Product.InstallDir
		}
		if dir == "" {
			dir = platform.DefaultInstallDir(m.Product.Name)
		}

		runner, err := newRunner(m, dir, "install")
		if err != nil {
			return err
		}
		runner.Session = engine.NewSession(dir, sessionLanguage(), sections)
		return runner.Install()
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove a recorded installation",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := installDir
		if dir == "" {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate own executable: %w", err)
			}
			dir = filepath.Dir(exe)
		}

		runner, err := newRunner(nil, dir, "uninstall")
		if err != nil {
			return err
		}
		runner.Session = engine.NewSession(dir, sessionLanguage(), nil)
		return runner.Uninstall()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse a manifest and check its invariants",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := packflow.Load(manifestPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: %d section(s), ok\n", m.Product.Name, m.Product.Version, len(m.Sections))
		return nil
	},
}

func newRunner(m *packflow.Manifest, dir, mode string) (*engine.Runner, error) {
	lang := sessionLanguage()
	strs := packflow.NewStrings(lang, nil)

	prefix := "packflow-" + mode
	if m != nil {
		prefix = strings.ToLower(m.ProductKey()) + "-" + mode
	}
	logger, logPath, err := engine.NewSessionLog(prefix, os.Stderr)
	if err != nil {
		return nil, err
	}
	logger.Infof("log file: %s", logPath)

	store, err := platform.DefaultStore()
	if err != nil {
		return nil, err
	}
	journal, err := platform.DefaultJournal()
	if err != nil {
		return nil, err
	}
	startMenu, err := startMenuDir()
	if err != nil {
		return nil, err
	}

	return &engine.Runner{
		Manifest:     m,
		Store:        store,
		Strings:      strs,
		Log:          logger,
		Journal:      journal,
		PayloadRoot:  payloadRoot,
		StartMenuDir: startMenu,
	}, nil
}

func startMenuDir() (string, error) {
	if platform.IsElevated() {
		return platform.StartMenuPath()
	}
	return platform.UserStartMenuPath()
}

func sessionLanguage() string {
	if language != "" {
		return language
	}
	return packflow.NormalizeLanguage(os.Getenv("LANG"))
}

// drainJournal retries deletions deferred by an earlier uninstall.
func drainJournal() {
	journal, err := platform.DefaultJournal()
	if err != nil {
		return
	}
	for _, path := range journal.Drain() {
		log.Debugf("removed deferred file %s", path)
	}
}

func main() {
	drainJournal()

	// Installed uninstaller copies run uninstall for their own directory.
	if len(os.Args) == 1 {
		exe, err := os.Executable()
		if err == nil && strings.HasPrefix(strings.ToLower(filepath.Base(exe)), "uninstall") {
			os.Args = append(os.Args, "uninstall")
		}
	}

	if err := rootCmd.Execute(); err != nil {
		var pe *engine.PrereqError
		if errors.As(err, &pe) {
			fmt.Fprintln(os.Stderr, pe.Message)
			os.Exit(exitPrereq)
		}
		os.Exit(exitFailure)
	}
}
