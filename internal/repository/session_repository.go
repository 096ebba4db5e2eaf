package repository

import (
	"database/sql"
	"fmt"
	"time"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
)

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(session *entities.Session) error
	Get(sessionID string) (*entities.Session, error)
	Delete(sessionID string) (bool, error)
	DeleteExpired(now time.Time) (int, error)
}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new Postgres-backed session repository
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session
func (r *sessionRepository) Create(session *entities.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, created_at, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(query,
		session.SessionID,
		session.UserID,
		session.CreatedAt.UTC(),
		session.ExpiresAt.UTC(),
		session.IPAddress,
		session.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by its ID
func (r *sessionRepository) Get(sessionID string) (*entities.Session, error) {
	query := `
		SELECT session_id, user_id, created_at, expires_at, ip_address, user_agent
		FROM sessions
		WHERE session_id = $1
	`

	var session entities.Session
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.SessionID,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.IPAddress,
		&session.UserAgent,
	)

	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("session", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// Delete removes a session, reporting whether one existed
func (r *sessionRepository) Delete(sessionID string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteExpired removes every session past its expiry
func (r *sessionRepository) DeleteExpired(now time.Time) (int, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}
