package storage

// createTableStatements returns every CREATE TABLE/INDEX statement applied
// on Open. All tables are defined up front; there is no migrations.go yet
// because there is no prior schema version to migrate from.
func createTableStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS images (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			hash TEXT NOT NULL DEFAULT '',
			plugin_id TEXT NOT NULL DEFAULT '',
			task_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			favorite INTEGER NOT NULL DEFAULT 0,
			size INTEGER NOT NULL DEFAULT 0,
			width INTEGER,
			height INTEGER,
			file_name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_images_created_at ON images(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_images_hash ON images(hash);`,
		`CREATE INDEX IF NOT EXISTS idx_images_plugin_id ON images(plugin_id);`,
		`CREATE INDEX IF NOT EXISTS idx_images_task_id ON images(task_id);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_images_path ON images(path);`,

		`CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_albums_name_ci ON albums(name COLLATE NOCASE);`,

		`CREATE TABLE IF NOT EXISTS album_images (
			album_id TEXT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
			image_id TEXT NOT NULL REFERENCES images(id) ON DELETE CASCADE,
			order_key INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (album_id, image_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_album_images_image ON album_images(image_id);`,
		`CREATE INDEX IF NOT EXISTS idx_album_images_order ON album_images(album_id, order_key ASC);`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			plugin_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			rhai_dump_confirmed INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_plugin_id ON tasks(plugin_id);`,

		`CREATE TABLE IF NOT EXISTS task_images (
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			image_id TEXT REFERENCES images(id) ON DELETE CASCADE,
			failed INTEGER NOT NULL DEFAULT 0,
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_task_images_task ON task_images(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_task_images_failed ON task_images(task_id, failed);`,

		`CREATE TABLE IF NOT EXISTS run_configs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			plugin_id TEXT NOT NULL,
			url TEXT NOT NULL,
			output_dir TEXT NOT NULL DEFAULT '',
			user_config TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS temp_files (
			path TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_wallpaper_image_id TEXT,
			auto_dedupe INTEGER NOT NULL DEFAULT 0,
			rotation_album_id TEXT
		);`,
	}
}
