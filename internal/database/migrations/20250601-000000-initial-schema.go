package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250601-000000",
		Description: "Initial schema",
		Up: []string{
			// Users - students, instructors, and admins
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				username TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'student',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

			// Courses - authored by instructors
			`CREATE TABLE IF NOT EXISTS courses (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				content TEXT NOT NULL,
				instructor_id TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (instructor_id) REFERENCES users(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_courses_instructor_id ON courses(instructor_id)`,

			// Enrollments - student <-> course membership
			`CREATE TABLE IF NOT EXISTS enrollments (
				course_id TEXT NOT NULL,
				student_id TEXT NOT NULL,
				enrolled_at TEXT NOT NULL,
				PRIMARY KEY (course_id, student_id),
				FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
				FOREIGN KEY (student_id) REFERENCES users(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_enrollments_student_id ON enrollments(student_id)`,

			// API usage ledger - one row per calendar day
			// day is the normalized UTC date key; the UNIQUE constraint backs
			// the create-if-absent upsert so concurrent first reads of a day
			// cannot produce duplicates.
			`CREATE TABLE IF NOT EXISTS api_usage (
				id TEXT PRIMARY KEY,
				day TEXT UNIQUE NOT NULL,
				total_requests INTEGER NOT NULL DEFAULT 0,
				requests_today INTEGER NOT NULL DEFAULT 0,
				max_requests INTEGER NOT NULL DEFAULT 250,
				last_reset TEXT NOT NULL,
				is_active INTEGER NOT NULL DEFAULT 1,
				admin_notes TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_api_usage_day ON api_usage(day)`,
		},
	})
}
