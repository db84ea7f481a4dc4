package clickhouse

import (
	"context"
	"fmt"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/idhash"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// EvaluationStore implements storage.EvaluationStore using ClickHouse.
type EvaluationStore struct {
	conn *Conn
}

// NewEvaluationStore creates a new EvaluationStore.
func NewEvaluationStore(conn *Conn) *EvaluationStore {
	return &EvaluationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

// Insert appends a record. Returns ErrDuplicateKey if the same evaluation was recorded.
// MergeTree does not enforce uniqueness, so existence is checked before insert.
func (s *EvaluationStore) Insert(ctx context.Context, r *domain.EvaluationRecord) error {
	if r == nil || r.RequestID == "" {
		return storage.ErrInvalidInput
	}

	evaluationID := idhash.ComputeEvaluationID(r.RequestID, r.UserID, r.EvaluatedAt)

	exists, err := s.exists(ctx, evaluationID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO deploy_evaluations (
			evaluation_id, request_id, user_id, username,
			token_name, token_symbol,
			virality, storytelling, innovation, mood, total_score,
			approved, eligible, reason, evaluated_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		evaluationID, r.RequestID, r.UserID, r.Username,
		r.TokenName, r.TokenSymbol,
		int32(r.Scores.Virality), int32(r.Scores.Storytelling), int32(r.Scores.Innovation), int32(r.Scores.Mood),
		int32(r.TotalScore),
		boolToUint8(r.Approved), boolToUint8(r.Eligible), r.Reason, r.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves records evaluated within [start, end], ordered by evaluated_at ASC.
func (s *EvaluationStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.EvaluationRecord, error) {
	query := `
		SELECT request_id, user_id, username, token_name, token_symbol,
		       virality, storytelling, innovation, mood, total_score,
		       approved, eligible, reason, evaluated_at
		FROM deploy_evaluations FINAL
		WHERE evaluated_at >= ? AND evaluated_at <= ?
		ORDER BY evaluated_at ASC, evaluation_id ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

func (s *EvaluationStore) exists(ctx context.Context, evaluationID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM deploy_evaluations WHERE evaluation_id = ?
	`, evaluationID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows used by scanners.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanEvaluations(rows chRows) ([]*domain.EvaluationRecord, error) {
	var result []*domain.EvaluationRecord
	for rows.Next() {
		var (
			r                                                  domain.EvaluationRecord
			virality, storytelling, innovation, mood, totalRaw int32
			approved, eligible                                 uint8
		)
		err := rows.Scan(
			&r.RequestID, &r.UserID, &r.Username, &r.TokenName, &r.TokenSymbol,
			&virality, &storytelling, &innovation, &mood, &totalRaw,
			&approved, &eligible, &r.Reason, &r.EvaluatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		r.Scores = domain.Scores{
			Virality:     int(virality),
			Storytelling: int(storytelling),
			Innovation:   int(innovation),
			Mood:         int(mood),
		}
		r.TotalScore = int(totalRaw)
		r.Approved = approved == 1
		r.Eligible = eligible == 1
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return result, nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
