// Package apppaths resolves where kabegame keeps its database, virtual
// drive notes, and other on-disk state, matching spec §6's "On-disk
// layout" section.
package apppaths

import (
	"os"
	"path/filepath"
)

const appFolderName = "Kabegame"

// devMarkerA and devMarkerB are the pair of files that, when both present
// in a directory, identify it as this repository's own working tree
// rather than an installed build. This mirrors the original's walk up
// looking for `package.json` + `src-tauri/`; here the repo's own build
// marker (go.mod) and requirements marker (SPEC_FULL.md) play that role.
const (
	devMarkerA = "go.mod"
	devMarkerB = "SPEC_FULL.md"
)

// Paths bundles the directories the rest of the core reads and writes.
type Paths struct {
	DataDir          string
	DatabasePath     string
	VirtualDriveDir  string
	VirtualDriveNote string
	// VirtualDriveMountPoint is the default host directory the virtual
	// drive projects onto; overridable via cmd/kabegamed's --mount flag.
	VirtualDriveMountPoint string
	// IPCSocketPath is the Unix domain socket path on POSIX systems. It is
	// unused on Windows, where IPCPipeName addresses a named pipe instead.
	IPCSocketPath string
	// IPCPipeName is the named pipe path on Windows
	// (\\.\pipe\<IPCPipeName>), unused on POSIX.
	IPCPipeName string
}

// Resolve computes the Paths to use for this process. devOverride, when
// non-empty, takes precedence over both the repo-marker walk and the
// platform-local app-data directory; it exists for tests and for the
// --data-dir CLI flag.
func Resolve(devOverride string) (Paths, error) {
	dir, err := dataDir(devOverride)
	if err != nil {
		return Paths{}, err
	}
	vdDir := filepath.Join(dir, "virtual-drive", "notes")
	return Paths{
		DataDir:                dir,
		DatabasePath:           filepath.Join(dir, "kabegame.db"),
		VirtualDriveDir:        vdDir,
		VirtualDriveNote:       vdDir,
		VirtualDriveMountPoint: filepath.Join(dir, "mount"),
		IPCSocketPath:          filepath.Join(dir, "kabegamed.sock"),
		IPCPipeName:            "kabegamed",
	}, nil
}

func dataDir(devOverride string) (string, error) {
	if devOverride != "" {
		return devOverride, nil
	}

	if root, ok := repoRootDir(); ok {
		return filepath.Join(root, "data"), nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appFolderName), nil
}

// repoRootDir walks up from the current working directory looking for a
// directory containing both devMarkerA and devMarkerB, up to 10 levels,
// matching the original's bounded walk-up.
func repoRootDir() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}

	for i := 0; i < 10; i++ {
		_, errA := os.Stat(filepath.Join(dir, devMarkerA))
		_, errB := os.Stat(filepath.Join(dir, devMarkerB))
		if errA == nil && errB == nil {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
	return "", false
}

// EnsureDirs creates the directories in p that must exist before Storage
// or the virtual drive notes writer can use them.
func EnsureDirs(p Paths) error {
	if err := os.MkdirAll(p.DataDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(p.VirtualDriveDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(p.VirtualDriveMountPoint, 0o755)
}
