package storage

import (
	"database/sql"
	"encoding/json"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

type runConfigRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	PluginID   string `db:"plugin_id"`
	URL        string `db:"url"`
	OutputDir  string `db:"output_dir"`
	UserConfig string `db:"user_config"`
	CreatedAt  int64  `db:"created_at"`
}

func (r runConfigRow) toRunConfig() (types.RunConfig, error) {
	var uc map[string]string
	if err := json.Unmarshal([]byte(r.UserConfig), &uc); err != nil {
		return types.RunConfig{}, err
	}
	return types.RunConfig{
		ID:         types.RunConfigID(r.ID),
		Name:       r.Name,
		PluginID:   r.PluginID,
		URL:        r.URL,
		OutputDir:  r.OutputDir,
		UserConfig: uc,
		CreatedAt:  r.CreatedAt,
	}, nil
}

// AddRunConfig inserts cfg as a new row.
func (s *Storage) AddRunConfig(cfg types.RunConfig) error {
	userConfig, err := json.Marshal(cfg.UserConfig)
	if err != nil {
		return errorx.Wrap(errorx.InvalidInput, "marshal run config user_config", err)
	}
	return s.withWrite("add run config", func() error {
		_, err := s.db.Exec(
			`INSERT INTO run_configs (id, name, plugin_id, url, output_dir, user_config, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(cfg.ID), cfg.Name, cfg.PluginID, cfg.URL, cfg.OutputDir, string(userConfig), cfg.CreatedAt,
		)
		return err
	})
}

// GetRunConfigs returns every saved run configuration, most recently
// created first.
func (s *Storage) GetRunConfigs() ([]types.RunConfig, error) {
	var rows []runConfigRow
	err := s.db.Select(&rows,
		`SELECT id, name, plugin_id, url, output_dir, user_config, created_at FROM run_configs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get run configs", err)
	}
	out := make([]types.RunConfig, 0, len(rows))
	for _, r := range rows {
		cfg, err := r.toRunConfig()
		if err != nil {
			return nil, errorx.Wrap(errorx.Storage, "decode run config", err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// GetRunConfig returns the run config with id, or a NotFound error.
func (s *Storage) GetRunConfig(id types.RunConfigID) (types.RunConfig, error) {
	var row runConfigRow
	err := s.db.Get(&row,
		`SELECT id, name, plugin_id, url, output_dir, user_config, created_at FROM run_configs WHERE id = ?`,
		string(id),
	)
	if err == sql.ErrNoRows {
		return types.RunConfig{}, errorx.New(errorx.NotFound, "run config not found")
	}
	if err != nil {
		return types.RunConfig{}, errorx.Wrap(errorx.Storage, "get run config", err)
	}
	return row.toRunConfig()
}

// UpdateRunConfig overwrites every field of the run config named by
// cfg.ID.
func (s *Storage) UpdateRunConfig(cfg types.RunConfig) error {
	userConfig, err := json.Marshal(cfg.UserConfig)
	if err != nil {
		return errorx.Wrap(errorx.InvalidInput, "marshal run config user_config", err)
	}
	return s.withWrite("update run config", func() error {
		res, err := s.db.Exec(
			`UPDATE run_configs SET name = ?, plugin_id = ?, url = ?, output_dir = ?, user_config = ? WHERE id = ?`,
			cfg.Name, cfg.PluginID, cfg.URL, cfg.OutputDir, string(userConfig), string(cfg.ID),
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "run config not found")
		}
		return nil
	})
}

// DeleteRunConfig removes the run config with id.
func (s *Storage) DeleteRunConfig(id types.RunConfigID) error {
	return s.withWrite("delete run config", func() error {
		res, err := s.db.Exec(`DELETE FROM run_configs WHERE id = ?`, string(id))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "run config not found")
		}
		return nil
	})
}
