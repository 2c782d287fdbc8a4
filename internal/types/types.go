// Package types holds the small, dependency-free value types shared across
// the storage, provider, and ipc layers.
package types

// ImageID is an opaque, stable identifier for an image row. It is a named
// string type rather than a bare string so that image/album/task IDs can't
// be passed to the wrong parameter by accident.
type ImageID string

// AlbumID is an opaque, stable identifier for an album row.
type AlbumID string

// TaskID is an opaque, stable identifier for a task row.
type TaskID string

// RunConfigID is an opaque, stable identifier for a saved run configuration.
type RunConfigID string

// FavoriteAlbumID is the reserved album id that always exists and can
// never be renamed or deleted.
const FavoriteAlbumID AlbumID = "favorites"

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCanceled  TaskStatus = "canceled"
)

// Image mirrors the Image row described in spec §3.
type Image struct {
	ID        ImageID
	Path      string
	Hash      string
	PluginID  string
	TaskID    TaskID
	CreatedAt int64
	Favorite  bool
	Size      int64
	Width     *int
	Height    *int
	FileName  string
}

// Album mirrors the Album row described in spec §3.
type Album struct {
	ID        AlbumID
	Name      string
	CreatedAt int64
}

// Task mirrors the Task row described in spec §3.
type Task struct {
	ID        TaskID
	PluginID  string
	Status    TaskStatus
	CreatedAt int64
	UpdatedAt int64
}

// RunConfig mirrors the RunConfig row described in spec §3.
type RunConfig struct {
	ID         RunConfigID
	Name       string
	PluginID   string
	URL        string
	OutputDir  string
	UserConfig map[string]string
	CreatedAt  int64
}

// TempFile mirrors the TempFile row described in spec §3.
type TempFile struct {
	Path      string
	CreatedAt int64
}

// Settings mirrors the single persisted settings row described in spec §2.
type Settings struct {
	CurrentWallpaperImageID *ImageID
	AutoDedupe              bool
	RotationAlbumID         *AlbumID
}
