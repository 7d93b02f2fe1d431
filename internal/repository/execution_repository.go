package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/model"
)

type ExecutionRepositoryInterface interface {
	Create(e *model.CampaignExecution) error
	GetByID(id int) (*model.CampaignExecution, error)
	ListByCampaign(campaignID int) ([]*model.CampaignExecution, error)
	ApplyProgress(id, sentDelta, failedDelta int, status, errorMessage *string) (*model.CampaignExecution, error)
	Stats(campaignID *int) (*model.ExecutionStats, error)
}

type ExecutionRepository struct {
	DB *sql.DB
}

const executionColumns = `id, campaign_id, execution_type, status, sent_count, failed_count,
       target_count, error_message, started_at, completed_at, created_at, updated_at`

func scanExecution(row interface{ Scan(...any) error }) (*model.CampaignExecution, error) {
	var e model.CampaignExecution
	err := row.Scan(
		&e.ID, &e.CampaignID, &e.ExecutionType, &e.Status,
		&e.SentCount, &e.FailedCount, &e.TargetCount, &e.ErrorMessage,
		&e.StartedAt, &e.CompletedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExecutionRepository) Create(e *model.CampaignExecution) error {
	if e.Status == "" {
		e.Status = model.ExecutionStatusQueued
	}
	query := `
        INSERT INTO campaign_executions
            (campaign_id, execution_type, status, sent_count, failed_count, target_count, created_at, updated_at)
        VALUES ($1, $2, $3, 0, 0, $4, NOW(), NOW())
        RETURNING ` + executionColumns
	created, err := scanExecution(r.DB.QueryRow(query, e.CampaignID, e.ExecutionType, e.Status, e.TargetCount))
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

func (r *ExecutionRepository) GetByID(id int) (*model.CampaignExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM campaign_executions WHERE id=$1`
	e, err := scanExecution(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewExecutionNotFound(id)
		}
		return nil, err
	}
	return e, nil
}

func (r *ExecutionRepository) ListByCampaign(campaignID int) ([]*model.CampaignExecution, error) {
	query := `SELECT ` + executionColumns + `
              FROM campaign_executions WHERE campaign_id=$1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	executions := []*model.CampaignExecution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

// ApplyProgress applies counter deltas and an optional status change in one
// UPDATE so concurrent patches serialize on the row. Counters are added to
// the stored value, never overwritten, so parallel senders cannot lose
// increments. The status CASE keeps a terminal status no matter what the
// caller asks for; counters still land on terminal rows. started_at is
// stamped only on the first transition into running, completed_at only on
// the transition into completed.
func (r *ExecutionRepository) ApplyProgress(id, sentDelta, failedDelta int, status, errorMessage *string) (*model.CampaignExecution, error) {
	query := `
        UPDATE campaign_executions SET
            sent_count   = sent_count + $1,
            failed_count = failed_count + $2,
            status = CASE
                WHEN status IN ('completed', 'failed') THEN status
                WHEN $3::text IS NULL THEN status
                ELSE $3::text
            END,
            started_at = CASE
                WHEN $3::text = 'running' AND started_at IS NULL AND status IN ('queued', 'paused') THEN NOW()
                ELSE started_at
            END,
            completed_at = CASE
                WHEN $3::text = 'completed' AND status NOT IN ('completed', 'failed') THEN NOW()
                ELSE completed_at
            END,
            error_message = COALESCE($4::text, error_message),
            updated_at = NOW()
        WHERE id = $5
        RETURNING ` + executionColumns
	e, err := scanExecution(r.DB.QueryRow(query, sentDelta, failedDelta, status, errorMessage, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewExecutionNotFound(id)
		}
		return nil, err
	}
	return e, nil
}

func (r *ExecutionRepository) Stats(campaignID *int) (*model.ExecutionStats, error) {
	query := `SELECT status, COUNT(*), COALESCE(SUM(sent_count), 0), COALESCE(SUM(failed_count), 0)
              FROM campaign_executions WHERE 1=1`
	args := []interface{}{}
	if campaignID != nil {
		query += fmt.Sprintf(" AND campaign_id=$%d", len(args)+1)
		args = append(args, *campaignID)
	}
	query += " GROUP BY status"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &model.ExecutionStats{
		ByStatus: map[string]int{
			model.ExecutionStatusQueued:    0,
			model.ExecutionStatusRunning:   0,
			model.ExecutionStatusCompleted: 0,
			model.ExecutionStatusFailed:    0,
			model.ExecutionStatusPaused:    0,
		},
	}
	for rows.Next() {
		var status string
		var count, sent, failed int
		if err := rows.Scan(&status, &count, &sent, &failed); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
		stats.TotalSent += sent
		stats.TotalFailed += failed
	}
	return stats, rows.Err()
}

var _ ExecutionRepositoryInterface = (*ExecutionRepository)(nil)
