package storage

import "github.com/kabegame/kabegame-sub003/internal/errorx"

// GetGalleryDateGroups returns every distinct "YYYY-MM" month that has at
// least one image, most recent first — the listing backing DateGroup
// provider.
func (s *Storage) GetGalleryDateGroups() ([]string, error) {
	var months []string
	err := s.db.Select(&months,
		`SELECT DISTINCT strftime('%Y-%m', datetime(created_at, 'unixepoch')) AS ym
		 FROM images
		 ORDER BY ym DESC`,
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get gallery date groups", err)
	}
	return months, nil
}

// GetGalleryPluginGroups returns every distinct non-empty plugin id that
// has produced at least one image — the listing backing PluginGroup
// provider.
func (s *Storage) GetGalleryPluginGroups() ([]string, error) {
	var ids []string
	err := s.db.Select(&ids,
		`SELECT DISTINCT plugin_id FROM images WHERE plugin_id != '' ORDER BY plugin_id ASC`,
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get gallery plugin groups", err)
	}
	return ids, nil
}

// GetGalleryTaskGroups returns every distinct non-empty task id that has
// produced at least one image, most recently created first — the listing
// backing TaskGroup provider.
func (s *Storage) GetGalleryTaskGroups() ([]string, error) {
	var ids []string
	err := s.db.Select(&ids,
		`SELECT task_id FROM images WHERE task_id != '' GROUP BY task_id ORDER BY MAX(created_at) DESC`,
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get gallery task groups", err)
	}
	return ids, nil
}
