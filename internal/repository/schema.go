package repository

import (
	"database/sql"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func CreateTableIfNotExists(db *sql.DB) {
	query := `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL,
    role VARCHAR(255) NOT NULL DEFAULT 'PM',
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY,
    seq BIGSERIAL,
    title VARCHAR(255) NOT NULL,
    description TEXT,
    assignee VARCHAR(255),
    status VARCHAR(32) NOT NULL,
    start_date DATE,
    due_date DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMPTZ,
    created_by UUID NOT NULL REFERENCES users (id)
);

CREATE TABLE IF NOT EXISTS task_logs (
    id UUID PRIMARY KEY,
    seq BIGSERIAL,
    task_id UUID NOT NULL REFERENCES tasks (id),
    event VARCHAR(255) NOT NULL,
    detail TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks (created_by);
CREATE INDEX IF NOT EXISTS idx_task_logs_task_id ON task_logs (task_id);
    `

	if _, err := db.Exec(query); err != nil {
		log.Fatalf("Error creating tables: %v", err)
	}
}

// SeedAdminUser inserts the default project-manager account if it does not
// exist yet. Meant for first boot and local development.
func SeedAdminUser(db *sql.DB) {
	email := "admin@gmail.com"
	var existing string
	err := db.QueryRow("SELECT email FROM users WHERE email = $1", email).Scan(&existing)
	if err == nil {
		log.Println("Admin already exists")
		return
	}
	if err != sql.ErrNoRows {
		log.Fatalf("Error checking admin user: %v", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("123465789"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error hashing password: %v", err)
	}
	_, err = db.Exec(
		"INSERT INTO users (id, email, password_hash, name, role) VALUES ($1, $2, $3, $4, $5)",
		uuid.New(), email, string(hashedPassword), "Project Manager", "PM",
	)
	if err != nil {
		log.Fatalf("Error inserting admin user: %v", err)
	}
	log.Println("Seeded admin:", email)
}

func DropAllTables(db *sql.DB) {
	query := `
    DROP TABLE IF EXISTS task_logs;
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS users;
    `
	if _, err := db.Exec(query); err != nil {
		log.Fatalf("Error dropping tables: %v", err)
	}
}
