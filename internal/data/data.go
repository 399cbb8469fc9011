package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// Repositories contains all store-backed repositories sharing one database.
type Repositories struct {
	Conversations repo.ConversationRepo
	Messages      repo.MessageRepo
	Participants  repo.StaffConversationRepo

	db *sql.DB
}

// Open opens (or creates) the inbox database and builds the repositories.
func Open(dbPath string) (*Repositories, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The pure-Go driver permits one writer at a time. A single pooled
	// connection plus a busy timeout queues concurrent writers instead of
	// surfacing SQLITE_BUSY to them.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Conversations: NewConversationRepo(db),
		Messages:      NewMessageRepo(db),
		Participants:  NewStaffConversationRepo(db),
		db:            db,
	}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT UNIQUE,
			type TEXT NOT NULL,
			customer_id TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id),
			content TEXT NOT NULL,
			author_type TEXT NOT NULL,
			author_id TEXT NOT NULL,
			provider_message_id TEXT UNIQUE,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS staff_conversations (
			staff_id TEXT NOT NULL,
			conversation_id INTEGER NOT NULL,
			joined_at INTEGER NOT NULL,
			PRIMARY KEY (staff_id, conversation_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle for maintenance tooling.
func (r *Repositories) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repositories) Close() error {
	return r.db.Close()
}
