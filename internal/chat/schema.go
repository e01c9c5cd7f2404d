package chat

// Schema statements are idempotent. MySQL uses ENUM columns for roles;
// SQLite expresses the same enums as CHECK constraints.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id VARCHAR(255) PRIMARY KEY,
		username VARCHAR(255),
		created_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_auth (
		user_id VARCHAR(255) PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('client', 'user') NOT NULL DEFAULT 'user',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS chat_sessions (
		session_id VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		session_name VARCHAR(255),
		created_at DATETIME NOT NULL,
		last_updated DATETIME NOT NULL,
		INDEX idx_chat_sessions_user_updated (user_id, last_updated),
		FOREIGN KEY (user_id) REFERENCES users(user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS chat_messages (
		id INT AUTO_INCREMENT PRIMARY KEY,
		session_id VARCHAR(255) NOT NULL,
		role ENUM('user', 'assistant') NOT NULL,
		content TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		INDEX idx_chat_messages_session_ts (session_id, timestamp),
		FOREIGN KEY (session_id) REFERENCES chat_sessions(session_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id VARCHAR(255) PRIMARY KEY,
		username VARCHAR(255),
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_auth (
		user_id VARCHAR(255) PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'user' CHECK (role IN ('client', 'user')),
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS chat_sessions (
		session_id VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		session_name VARCHAR(255),
		created_at DATETIME NOT NULL,
		last_updated DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_updated
		ON chat_sessions(user_id, last_updated)`,

	`CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES chat_sessions(session_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chat_messages_session_ts
		ON chat_messages(session_id, timestamp)`,
}

func schemaFor(dialect string) []string {
	if dialect == "sqlite" {
		return sqliteSchema
	}
	return mysqlSchema
}
