package provider

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/kabegame/kabegame-sub003/internal/types"
)

// NoteFiles synthesizes the read-only explanatory text files the virtual
// drive shows inside Root and PluginGroup (spec §4.4's "informational
// text note file", grounded on vd_ops::ensure_note_file). Gallery browse
// mode never constructs one — providers take a nil *NoteFiles there and
// skip the note entry entirely.
type NoteFiles struct {
	dir string
}

// NewNoteFiles roots note synthesis at dir (apppaths.Paths.VirtualDriveNote).
func NewNoteFiles(dir string) *NoteFiles {
	return &NoteFiles{dir: dir}
}

// Ensure writes body to "<hash>.txt" in the notes directory, the hash
// being derived from displayName, if that file is not already present,
// and returns a stable synthetic image id plus the resolved path.
func (n *NoteFiles) Ensure(displayName, body string) (types.ImageID, string, error) {
	sum := sha1.Sum([]byte(displayName))
	path := filepath.Join(n.dir, hex.EncodeToString(sum[:8])+".txt")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(n.dir, 0o755); err != nil {
			return "", "", err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return "", "", err
		}
	} else if err != nil {
		return "", "", err
	}
	return noteID(displayName), path, nil
}

// noteID derives a stable synthetic image id for a note file name, kept
// distinct from real image ids (which come from the ingesting plugin)
// by a fixed prefix.
func noteID(displayName string) types.ImageID {
	sum := sha1.Sum([]byte(displayName))
	return types.ImageID("note-" + hex.EncodeToString(sum[:8]))
}
