// Package session implements the Session Store: append-oriented persistence
// of Session records with iteration history, validation digests, listing,
// load, delete, resume, and rollback-to-iteration.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fathom/internal/domain"
	"fathom/internal/domain/models/research"
	"fathom/internal/repository/postgres"
)

// Store is the append-light, read-rare datastore backing session
// persistence. A mutex per session-id serializes Save and Rollback; reads
// are allowed concurrently and always observe a consistent committed value
// because each write commits in a single transaction.
type Store struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger

	locks sync.Map // session-id -> *sync.Mutex
}

func New(pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) *Store {
	return &Store{pool: pool, tables: tables, logger: logger}
}

func (s *Store) lockFor(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Save upserts a session, recomputing and storing its ValidationDigest
// atomically with respect to concurrent readers.
func (s *Store) Save(ctx context.Context, sess *research.Session) error {
	mu := s.lockFor(sess.ID)
	mu.Lock()
	defer mu.Unlock()
	return s.save(ctx, sess)
}

func (s *Store) save(ctx context.Context, sess *research.Session) error {
	if err := sess.CheckInvariants(); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	digest, err := Digest(sess)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrValidation, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			s.logger.Warn("session store: rollback after failed save", "error", err)
		}
	}()

	userID := sess.UserID

	upsertSession := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, status, started_at, ended_at, current_iteration, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at,
			current_iteration = EXCLUDED.current_iteration,
			data = EXCLUDED.data
	`, s.tables.Sessions)

	if _, err := tx.Exec(ctx, upsertSession,
		sess.ID, userID, string(sess.Status), sess.StartedAt, sess.EndedAt,
		sess.Aggregated.LastCompletedIteration, data,
	); err != nil {
		return fmt.Errorf("session: save session row: %w", err)
	}

	upsertValidation := fmt.Sprintf(`
		INSERT INTO %s (session_id, digest)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO UPDATE SET digest = EXCLUDED.digest
	`, s.tables.Validation)

	if _, err := tx.Exec(ctx, upsertValidation, sess.ID, string(digest)); err != nil {
		return fmt.Errorf("session: save validation row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("session: commit: %w", err)
	}
	return nil
}

// Load returns the full session record, or domain.ErrNotFound, or
// domain.ErrCorrupt on a digest mismatch.
func (s *Store) Load(ctx context.Context, id string) (*research.Session, error) {
	query := fmt.Sprintf(`
		SELECT s.data, v.digest
		FROM %s s
		LEFT JOIN %s v ON v.session_id = s.id
		WHERE s.id = $1
	`, s.tables.Sessions, s.tables.Validation)

	var data []byte
	var storedDigest *string
	if err := s.pool.QueryRow(ctx, query, id).Scan(&data, &storedDigest); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var sess research.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", domain.ErrCorrupt, err)
	}

	computed, err := Digest(&sess)
	if err != nil {
		return nil, err
	}
	if storedDigest == nil || *storedDigest != string(computed) {
		return nil, domain.ErrCorrupt
	}

	return &sess, nil
}

// List returns session summaries, optionally filtered by user-id, ordered by
// start-time descending.
func (s *Store) List(ctx context.Context, userID *string) ([]research.Summary, error) {
	var rows pgx.Rows
	var err error

	if userID != nil {
		query := fmt.Sprintf(`
			SELECT id, user_id, status, started_at, ended_at, current_iteration, data
			FROM %s WHERE user_id = $1 ORDER BY started_at DESC
		`, s.tables.Sessions)
		rows, err = s.pool.Query(ctx, query, *userID)
	} else {
		query := fmt.Sprintf(`
			SELECT id, user_id, status, started_at, ended_at, current_iteration, data
			FROM %s ORDER BY started_at DESC
		`, s.tables.Sessions)
		rows, err = s.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	defer rows.Close()

	var out []research.Summary
	for rows.Next() {
		var id string
		var uid *string
		var status string
		var startedAt time.Time
		var endedAt *time.Time
		var currentIteration int
		var data []byte

		if err := rows.Scan(&id, &uid, &status, &startedAt, &endedAt, &currentIteration, &data); err != nil {
			return nil, fmt.Errorf("session: list scan: %w", err)
		}

		var sess research.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			// A row whose data cannot be decoded is logged and left out of
			// the listing rather than failing the whole page.
			s.logger.Error("session store: skipping corrupt row in list", "session_id", id, "error", err)
			continue
		}
		out = append(out, sess.ToSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: list rows: %w", err)
	}
	return out, nil
}

// Delete removes the session and its validation record, returning whether a
// record was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tables.Sessions)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("session: delete: %w", err)
	}

	validationQuery := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, s.tables.Validation)
	if _, err := s.pool.Exec(ctx, validationQuery, id); err != nil {
		return false, fmt.Errorf("session: delete validation: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Resume loads a session for a new run to continue from; it fails if the
// session's status is terminal (completed/error) or the record is corrupt.
func (s *Store) Resume(ctx context.Context, id string) (*research.Session, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == research.StatusCompleted || sess.Status == research.StatusError {
		return nil, fmt.Errorf("%w: session %s has terminal status %q, cannot resume", domain.ErrValidation, id, sess.Status)
	}
	return sess, nil
}

// History projects the iterations field of a session.
func (s *Store) History(ctx context.Context, id string) ([]research.IterationRecord, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Iterations, nil
}

// Rollback truncates the iteration list to iterations <= n, recomputes
// AggregatedState from the surviving iterations, clears the final report,
// sets status to interrupted, clears end-time, persists, and returns the
// resulting session. It fails if n is not in the session's iteration range.
// Applying it twice with the same n is idempotent: the second call's
// truncation and recompute are no-ops over an already-truncated session.
func (s *Store) Rollback(ctx context.Context, id string, n int) (*research.Session, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(sess.Iterations) == 0 {
		if n != 0 {
			return nil, fmt.Errorf("%w: rollback target %d out of range for session with no iterations", domain.ErrValidation, n)
		}
		return sess, nil
	}

	maxN := sess.Iterations[len(sess.Iterations)-1].Number
	if n < 0 || n > maxN {
		return nil, fmt.Errorf("%w: rollback target %d out of range [0,%d]", domain.ErrValidation, n, maxN)
	}

	kept := make([]research.IterationRecord, 0, n)
	for _, it := range sess.Iterations {
		if it.Number <= n {
			kept = append(kept, it)
		}
	}
	sess.Iterations = kept
	sess.Aggregated = research.Recompute(kept)
	sess.FinalReport = nil
	sess.Status = research.StatusInterrupted
	sess.EndedAt = nil

	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
