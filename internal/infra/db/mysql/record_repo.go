package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

// RecordRepository is the MySQL flavor of the remote record store. MySQL has
// no array column type, so indicators are stored as a JSON string; that
// translation stays inside this adapter.
type RecordRepository struct{ db *sql.DB }

func NewRecordRepository(db *sql.DB) *RecordRepository { return &RecordRepository{db: db} }

const listLimit = 100

func (r *RecordRepository) Create(ctx context.Context, res *domain.Result) error {
	const q = `
INSERT INTO analysis_records
(id, score, verdict, risk_level, reasoning, indicators,
 media_type, file_name, liveness_score, liveness_analysis, artifact_url, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?);`

	id := uuid.New().String()
	indicators, err := json.Marshal(res.Indicators)
	if err != nil {
		return fmt.Errorf("encoding indicators: %w", err)
	}
	var livenessScore sql.NullInt64
	var livenessAnalysis sql.NullString
	if res.Liveness != nil {
		livenessScore = sql.NullInt64{Int64: int64(res.Liveness.Score), Valid: true}
		livenessAnalysis = sql.NullString{String: res.Liveness.Analysis, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, q,
		id, res.Score, res.Verdict, res.RiskLevel, res.Reasoning, indicators,
		res.MediaType, res.FileName, livenessScore, livenessAnalysis, res.ArtifactURL, res.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	res.ID = domain.RecordID(id)
	return nil
}

func (r *RecordRepository) List(ctx context.Context) ([]*domain.Result, error) {
	const q = `
SELECT id, score, verdict, risk_level, reasoning, indicators,
       media_type, file_name, liveness_score, liveness_analysis, artifact_url, created_at
FROM analysis_records
ORDER BY created_at DESC
LIMIT ?;`

	rows, err := r.db.QueryContext(ctx, q, listLimit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []*domain.Result
	for rows.Next() {
		var res domain.Result
		var indicators []byte
		var fileName, livenessAnalysis, artifactURL sql.NullString
		var livenessScore sql.NullInt64
		if err := rows.Scan(
			&res.ID, &res.Score, &res.Verdict, &res.RiskLevel, &res.Reasoning, &indicators,
			&res.MediaType, &fileName, &livenessScore, &livenessAnalysis, &artifactURL, &res.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if len(indicators) > 0 {
			if err := json.Unmarshal(indicators, &res.Indicators); err != nil {
				return nil, fmt.Errorf("decoding indicators: %w", err)
			}
		}
		res.FileName = fileName.String
		res.ArtifactURL = artifactURL.String
		if livenessScore.Valid {
			res.Liveness = &domain.Liveness{Score: int(livenessScore.Int64), Analysis: livenessAnalysis.String}
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

func (r *RecordRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM analysis_records;`)
	return err
}

func (r *RecordRepository) Name() string { return "mysql" }
