package storage

import (
	"database/sql"
	"time"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

type taskRow struct {
	ID                string `db:"id"`
	PluginID          string `db:"plugin_id"`
	Status            string `db:"status"`
	CreatedAt         int64  `db:"created_at"`
	UpdatedAt         int64  `db:"updated_at"`
	RhaiDumpConfirmed bool   `db:"rhai_dump_confirmed"`
}

func (r taskRow) toTask() types.Task {
	return types.Task{
		ID:        types.TaskID(r.ID),
		PluginID:  r.PluginID,
		Status:    types.TaskStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const taskColumns = "id, plugin_id, status, created_at, updated_at, rhai_dump_confirmed"

// GetAllTasks returns every task, most recently created first.
func (s *Storage) GetAllTasks() ([]types.Task, error) {
	var rows []taskRow
	err := s.db.Select(&rows, "SELECT "+taskColumns+" FROM tasks ORDER BY created_at DESC")
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get all tasks", err)
	}
	out := make([]types.Task, len(rows))
	for i, r := range rows {
		out[i] = r.toTask()
	}
	return out, nil
}

// GetTask returns task id, or a NotFound error.
func (s *Storage) GetTask(id types.TaskID) (types.Task, error) {
	var row taskRow
	err := s.db.Get(&row, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", string(id))
	if err == sql.ErrNoRows {
		return types.Task{}, errorx.New(errorx.NotFound, "task not found")
	}
	if err != nil {
		return types.Task{}, errorx.Wrap(errorx.Storage, "get task", err)
	}
	return row.toTask(), nil
}

// AddTask inserts a new task row.
func (s *Storage) AddTask(task types.Task) error {
	return s.withWrite("add task", func() error {
		_, err := s.db.Exec(
			`INSERT INTO tasks (id, plugin_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			string(task.ID), task.PluginID, string(task.Status), task.CreatedAt, task.UpdatedAt,
		)
		return err
	})
}

// UpdateTask writes task's status and bumps updated_at to now.
func (s *Storage) UpdateTask(id types.TaskID, status types.TaskStatus) error {
	return s.withWrite("update task", func() error {
		res, err := s.db.Exec(
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), time.Now().Unix(), string(id),
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "task not found")
		}
		return nil
	})
}

// DeleteTask removes task id and its task_images rows.
func (s *Storage) DeleteTask(id types.TaskID) error {
	return s.withWrite("delete task", func() error {
		res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, string(id))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "task not found")
		}
		return nil
	})
}

// GetTaskImages returns the images produced by task id, most recent first.
func (s *Storage) GetTaskImages(id types.TaskID) ([]types.Image, error) {
	var rows []imageRow
	err := s.db.Select(&rows, "SELECT "+qualifiedImageColumns+" FROM images i WHERE i.task_id = ? ORDER BY i.created_at DESC", string(id))
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get task images", err)
	}
	return toImages(rows), nil
}

// GetTaskImageIDs returns the image ids produced by task id, most recent
// first.
func (s *Storage) GetTaskImageIDs(id types.TaskID) ([]types.ImageID, error) {
	var ids []string
	err := s.db.Select(&ids, `SELECT id FROM images WHERE task_id = ? ORDER BY created_at DESC`, string(id))
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get task image ids", err)
	}
	out := make([]types.ImageID, len(ids))
	for i, v := range ids {
		out[i] = types.ImageID(v)
	}
	return out, nil
}

// GetTaskImagesPaginated returns page (1-based) of pageSize images
// produced by task id.
func (s *Storage) GetTaskImagesPaginated(id types.TaskID, page, pageSize int) (PaginatedImages, error) {
	if pageSize <= 0 {
		return PaginatedImages{}, errorx.New(errorx.InvalidInput, "page_size must be positive")
	}
	if page < 1 {
		page = 1
	}
	var total int
	if err := s.db.Get(&total, `SELECT COUNT(1) FROM images WHERE task_id = ?`, string(id)); err != nil {
		return PaginatedImages{}, errorx.Wrap(errorx.Storage, "get task images paginated", err)
	}
	var rows []imageRow
	offset := (page - 1) * pageSize
	err := s.db.Select(&rows,
		"SELECT "+qualifiedImageColumns+" FROM images i WHERE i.task_id = ? ORDER BY i.created_at DESC LIMIT ? OFFSET ?",
		string(id), pageSize, offset,
	)
	if err != nil {
		return PaginatedImages{}, errorx.Wrap(errorx.Storage, "get task images paginated", err)
	}
	return PaginatedImages{Items: toImages(rows), Total: total, Page: page, PageSize: pageSize}, nil
}

// TaskFailedImage describes one failed-to-ingest entry recorded against a
// task (the image row itself may never have been created).
type TaskFailedImage struct {
	FailureReason string
	CreatedAt     int64
}

// GetTaskFailedImages returns the failure entries recorded for task id.
func (s *Storage) GetTaskFailedImages(id types.TaskID) ([]TaskFailedImage, error) {
	var rows []struct {
		FailureReason string `db:"failure_reason"`
		CreatedAt     int64  `db:"created_at"`
	}
	err := s.db.Select(&rows,
		`SELECT failure_reason, created_at FROM task_images WHERE task_id = ? AND failed = 1 ORDER BY created_at ASC`,
		string(id),
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get task failed images", err)
	}
	out := make([]TaskFailedImage, len(rows))
	for i, r := range rows {
		out[i] = TaskFailedImage{FailureReason: r.FailureReason, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

// ConfirmTaskRhaiDump idempotently marks task id's crawler-script dump as
// acknowledged by the caller.
func (s *Storage) ConfirmTaskRhaiDump(id types.TaskID) error {
	return s.withWrite("confirm task rhai dump", func() error {
		res, err := s.db.Exec(`UPDATE tasks SET rhai_dump_confirmed = 1 WHERE id = ?`, string(id))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "task not found")
		}
		return nil
	})
}

// ClearFinishedTasks deletes every task whose status is Completed, Failed,
// or Canceled, returning the number removed.
func (s *Storage) ClearFinishedTasks() (int, error) {
	var removed int
	err := s.withWrite("clear finished tasks", func() error {
		res, err := s.db.Exec(
			`DELETE FROM tasks WHERE status IN (?, ?, ?)`,
			string(types.TaskCompleted), string(types.TaskFailed), string(types.TaskCanceled),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		removed = int(n)
		return err
	})
	return removed, err
}

// TaskWithImageCount pairs a task with how many images it has produced so
// far.
type TaskWithImageCount struct {
	Task       types.Task
	ImageCount int
}

// GetTasksWithImages returns every task alongside its produced-image count,
// most recently created first.
func (s *Storage) GetTasksWithImages() ([]TaskWithImageCount, error) {
	var rows []struct {
		taskRow
		ImageCount int `db:"image_count"`
	}
	err := s.db.Select(&rows,
		`SELECT t.id, t.plugin_id, t.status, t.created_at, t.updated_at, t.rhai_dump_confirmed,
		        (SELECT COUNT(1) FROM images im WHERE im.task_id = t.id) AS image_count
		 FROM tasks t
		 ORDER BY t.created_at DESC`,
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get tasks with images", err)
	}
	out := make([]TaskWithImageCount, len(rows))
	for i, r := range rows {
		out[i] = TaskWithImageCount{Task: r.taskRow.toTask(), ImageCount: r.ImageCount}
	}
	return out, nil
}
