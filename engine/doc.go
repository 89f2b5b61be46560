// Package engine runs a setup manifest in install or uninstall mode.
//
// The engine is a sequence of named Steps executed strictly one after the
// other. Install mode copies files, creates shortcuts, runs the bundled
// installer, writes the store bookkeeping, and finally writes an uninstaller
// next to a persisted reverse manifest (the Record). Uninstall mode loads
// the Record and replays it backwards, deferring deletion of in-use files to
// the pending-deletion journal.
//
// # Basic Usage
//
//	store, _ := platform.DefaultStore()
//	r := &engine.Runner{
//	    Manifest:     m,
//	    Session:      engine.NewSession(dir, "es", nil),
//	    Store:        store,
//	    Strings:      packflow.NewStrings("es", nil),
//	    Log:          log,
//	    PayloadRoot:  payload,
//	    StartMenuDir: startMenu,
//	}
//	if err := r.Install(); err != nil {
//	    var pe *engine.PrereqError
//	    if errors.As(err, &pe) {
//	        // localized message, nothing was written
//	    }
//	    return err
//	}
package engine
