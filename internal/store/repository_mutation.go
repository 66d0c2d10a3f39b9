package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/adb3502/liims-sub002/internal/logger"
	"github.com/adb3502/liims-sub002/models"
)

// mutationRepository is the SQLite-backed implementation of
// [MutationRepository]. All mutation lifecycle operations execute directly
// against the "mutations" table using the embedded [*DB] connection.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so database interactions are traced with structured
// fields (mutation id, status, batch size).
type mutationRepository struct {
	*DB
	logger   *logger.Logger
	notifier *queueNotifier
}

// NewMutationRepository constructs a [MutationRepository] backed by the
// provided database connection and logger.
func NewMutationRepository(db *DB, logger *logger.Logger) MutationRepository {
	return &mutationRepository{
		DB:       db,
		logger:   logger,
		notifier: newQueueNotifier(),
	}
}

func (m *mutationRepository) Enqueue(ctx context.Context, mutationType string, payload json.RawMessage, entityID string) (models.Mutation, error) {
	log := logger.FromContext(ctx)

	mutation, err := models.NewMutation(mutationType, payload, entityID)
	if err != nil {
		return models.Mutation{}, fmt.Errorf("build mutation: %w", err)
	}

	result, err := m.DB.ExecContext(ctx, insertMutation,
		mutation.ID,
		mutation.Type,
		mutation.EntityID,
		[]byte(mutation.Payload),
		mutation.CreatedAt,
		mutation.Status.String(),
		mutation.RetryCount,
	)
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.Enqueue").
			Str("mutation_type", mutationType).
			Msg("failed to execute insert for mutation")
		return models.Mutation{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.Enqueue").
			Str("mutation_id", mutation.ID).
			Msg("failed to get rows affected after insert")
		return models.Mutation{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if rowsAffected == 0 {
		log.Error().
			Str("func", "mutationRepository.Enqueue").
			Str("mutation_id", mutation.ID).
			Msg("mutation was not persisted")
		return models.Mutation{}, fmt.Errorf("%w: no rows affected", ErrStoreUnavailable)
	}

	m.notifier.notify()
	return mutation, nil
}

func (m *mutationRepository) ListPending(ctx context.Context) ([]models.Mutation, error) {
	log := logger.FromContext(ctx)

	rows, err := m.DB.QueryContext(ctx, listPendingMutations)
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.ListPending").
			Msg("failed to execute query for pending mutations")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var items []models.Mutation

	for rows.Next() {
		var item models.Mutation
		var status string
		var payload []byte

		scanErr := rows.Scan(
			&item.ID,
			&item.Type,
			&item.EntityID,
			&payload,
			&item.CreatedAt,
			&status,
			&item.RetryCount,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "mutationRepository.ListPending").
				Msg("failed to scan mutation row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		item.Payload = json.RawMessage(payload)
		item.Status = models.MutationStatus(status)
		if !item.Status.Valid() {
			log.Error().
				Str("func", "mutationRepository.ListPending").
				Str("mutation_id", item.ID).
				Str("status", status).
				Msg("unknown status value in mutation row")
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}

		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "mutationRepository.ListPending").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return items, nil
}

func (m *mutationRepository) SetStatus(ctx context.Context, id string, status models.MutationStatus) error {
	log := logger.FromContext(ctx)

	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	// failed also increments retry_count in the same UPDATE so the two
	// writes can never be observed apart
	var result sql.Result
	var err error
	if status == models.MutationFailed {
		result, err = m.DB.ExecContext(ctx, setMutationFailed, id)
	} else {
		result, err = m.DB.ExecContext(ctx, setMutationStatus, status.String(), id)
	}
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.SetStatus").
			Str("mutation_id", id).
			Str("status", status.String()).
			Msg("failed to execute status update for mutation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.SetStatus").
			Str("mutation_id", id).
			Msg("failed to get rows affected after status update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if rowsAffected == 0 {
		log.Warn().
			Str("func", "mutationRepository.SetStatus").
			Str("mutation_id", id).
			Msg("no rows affected during status update: mutation not found")
		return fmt.Errorf("%w (id=%s)", ErrMutationNotFound, id)
	}

	m.notifier.notify()
	return nil
}

func (m *mutationRepository) MarkSyncing(ctx context.Context, ids []string) error {
	log := logger.FromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Update("mutations").
		Set("status", models.MutationSyncing.String()).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.MarkSyncing").
			Int("batch_size", len(ids)).
			Msg("failed to build batch status update")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.MarkSyncing").
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "mutationRepository.MarkSyncing").
			Int("batch_size", len(ids)).
			Msg("failed to execute batch status update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "mutationRepository.MarkSyncing").
			Msg("failed to commit batch status update")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	m.notifier.notify()
	return nil
}

func (m *mutationRepository) Remove(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	_, err := m.DB.ExecContext(ctx, removeMutation, id)
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.Remove").
			Str("mutation_id", id).
			Msg("failed to execute delete for mutation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	m.notifier.notify()
	return nil
}

func (m *mutationRepository) ResetInFlight(ctx context.Context) error {
	log := logger.FromContext(ctx)

	result, err := m.DB.ExecContext(ctx, resetInFlightMutations)
	if err != nil {
		log.Err(err).
			Str("func", "mutationRepository.ResetInFlight").
			Msg("failed to reset in-flight mutations")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if rowsAffected, raErr := result.RowsAffected(); raErr == nil && rowsAffected > 0 {
		log.Warn().
			Str("func", "mutationRepository.ResetInFlight").
			Int64("count", rowsAffected).
			Msg("reset mutations left syncing by an interrupted cycle")
	}

	return nil
}

func (m *mutationRepository) PurgeTerminal(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if _, err := m.DB.ExecContext(ctx, purgeTerminalMutations); err != nil {
		log.Err(err).
			Str("func", "mutationRepository.PurgeTerminal").
			Msg("failed to purge terminal mutations")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (m *mutationRepository) CountPending(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	var count int
	if err := m.DB.QueryRowContext(ctx, countPendingMutations).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "mutationRepository.CountPending").
			Msg("failed to count pending mutations")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func (m *mutationRepository) SubscribeQueue(fn func()) func() {
	return m.notifier.subscribe(fn)
}
