package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

// RecordRepository is the remote record store. Field-name casing differences
// between the in-memory model and the snake_case schema are translated here
// and nowhere else.
type RecordRepository struct{ db *sql.DB }

func NewRecordRepository(db *sql.DB) *RecordRepository { return &RecordRepository{db: db} }

// ListLimit caps how many rows a list read pulls back.
const ListLimit = 100

// Create inserts the record and assigns its ID; the store owns id assignment.
func (r *RecordRepository) Create(ctx context.Context, res *domain.Result) error {
	const q = `
INSERT INTO analysis_records
(id, score, verdict, risk_level, reasoning, indicators,
 media_type, file_name, liveness_score, liveness_analysis, artifact_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`

	id := uuid.New().String()
	var livenessScore sql.NullInt64
	var livenessAnalysis sql.NullString
	if res.Liveness != nil {
		livenessScore = sql.NullInt64{Int64: int64(res.Liveness.Score), Valid: true}
		livenessAnalysis = sql.NullString{String: res.Liveness.Analysis, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, q,
		id, res.Score, res.Verdict, res.RiskLevel, res.Reasoning, pq.Array(res.Indicators),
		res.MediaType, res.FileName, livenessScore, livenessAnalysis, res.ArtifactURL, res.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	res.ID = domain.RecordID(id)
	return nil
}

// List returns records newest first.
func (r *RecordRepository) List(ctx context.Context) ([]*domain.Result, error) {
	const q = `
SELECT id, score, verdict, risk_level, reasoning, indicators,
       media_type, file_name, liveness_score, liveness_analysis, artifact_url, created_at
FROM analysis_records
ORDER BY created_at DESC
LIMIT $1;`

	rows, err := r.db.QueryContext(ctx, q, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []*domain.Result
	for rows.Next() {
		var res domain.Result
		var indicators pq.StringArray
		var fileName, livenessAnalysis, artifactURL sql.NullString
		var livenessScore sql.NullInt64
		if err := rows.Scan(
			&res.ID, &res.Score, &res.Verdict, &res.RiskLevel, &res.Reasoning, &indicators,
			&res.MediaType, &fileName, &livenessScore, &livenessAnalysis, &artifactURL, &res.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		res.Indicators = indicators
		res.FileName = fileName.String
		res.ArtifactURL = artifactURL.String
		if livenessScore.Valid {
			res.Liveness = &domain.Liveness{Score: int(livenessScore.Int64), Analysis: livenessAnalysis.String}
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

// Clear bulk-deletes records. The store's own access policy may restrict
// this; a permission error propagates for the facade to log and ignore.
func (r *RecordRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM analysis_records;`)
	return err
}

func (r *RecordRepository) Name() string { return "postgres" }
