package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/model"
)

type WebhookRepositoryInterface interface {
	Create(w *model.Webhook) error
	GetByID(id int) (*model.Webhook, error)
	UpdateStatus(id int, status, errorMessage string) (*model.Webhook, error)
	ListByEvent(eventType string, limit int) ([]*model.Webhook, error)
	ListFailed(clientID *int, maxRetries int) ([]*model.Webhook, error)
	MarkRetry(id, maxRetries int) (bool, error)
	CountFailedAtCeiling(clientID *int, maxRetries int) (int, error)
	Stats(clientID *int, daysBack int) (*model.WebhookStats, error)
}

type WebhookRepository struct {
	DB *sql.DB
}

const webhookColumns = `id, client_id, provider, event_type, payload, status, retry_count,
       error_message, created_at, processed_at`

func scanWebhook(row interface{ Scan(...any) error }) (*model.Webhook, error) {
	var w model.Webhook
	var payload []byte
	err := row.Scan(
		&w.ID, &w.ClientID, &w.Provider, &w.EventType, &payload,
		&w.Status, &w.RetryCount, &w.ErrorMessage, &w.CreatedAt, &w.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Payload = payload
	return &w, nil
}

func (r *WebhookRepository) Create(w *model.Webhook) error {
	if w.Status == "" {
		w.Status = model.WebhookStatusReceived
	}
	if len(w.Payload) == 0 {
		w.Payload = []byte("{}")
	}
	query := `
        INSERT INTO webhooks (client_id, provider, event_type, payload, status, retry_count, error_message, created_at)
        VALUES ($1, $2, $3, $4, $5, 0, '', NOW())
        RETURNING ` + webhookColumns
	created, err := scanWebhook(r.DB.QueryRow(query, w.ClientID, w.Provider, w.EventType, []byte(w.Payload), w.Status))
	if err != nil {
		return err
	}
	*w = *created
	return nil
}

func (r *WebhookRepository) GetByID(id int) (*model.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id=$1`
	w, err := scanWebhook(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewWebhookNotFound(id)
		}
		return nil, err
	}
	return w, nil
}

// UpdateStatus moves a webhook out of (or back into) received. processed_at
// is stamped exactly when the status leaves received.
func (r *WebhookRepository) UpdateStatus(id int, status, errorMessage string) (*model.Webhook, error) {
	query := `
        UPDATE webhooks SET
            status = $1,
            error_message = $2,
            processed_at = CASE
                WHEN status = 'received' AND $1 <> 'received' THEN NOW()
                ELSE processed_at
            END
        WHERE id = $3
        RETURNING ` + webhookColumns
	w, err := scanWebhook(r.DB.QueryRow(query, status, errorMessage, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewWebhookNotFound(id)
		}
		return nil, err
	}
	return w, nil
}

// ListByEvent returns webhooks newest-first. The ordering is a presentation
// contract only; processing order is not FIFO.
func (r *WebhookRepository) ListByEvent(eventType string, limit int) ([]*model.Webhook, error) {
	if limit < 1 {
		limit = 50
	}
	query := `SELECT ` + webhookColumns + `
              FROM webhooks WHERE event_type=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.DB.Query(query, eventType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

// ListFailed returns failed webhooks still under the retry ceiling. A
// maxRetries <= 0 means no ceiling filter.
func (r *WebhookRepository) ListFailed(clientID *int, maxRetries int) ([]*model.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE status='failed'`
	args := []interface{}{}
	if maxRetries > 0 {
		query += fmt.Sprintf(" AND retry_count < $%d", len(args)+1)
		args = append(args, maxRetries)
	}
	if clientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", len(args)+1)
		args = append(args, *clientID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

// MarkRetry transitions one failed webhook back to received, incrementing
// retry_count and clearing error_message. The guard runs in the UPDATE
// itself so a concurrent sweep cannot advance the same webhook twice.
// Returns false when the webhook no longer matches the guard.
func (r *WebhookRepository) MarkRetry(id, maxRetries int) (bool, error) {
	query := `
        UPDATE webhooks SET
            status = 'received',
            retry_count = retry_count + 1,
            error_message = '',
            processed_at = NULL
        WHERE id = $1 AND status = 'failed' AND retry_count < $2`
	res, err := r.DB.Exec(query, id, maxRetries)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *WebhookRepository) CountFailedAtCeiling(clientID *int, maxRetries int) (int, error) {
	query := `SELECT COUNT(*) FROM webhooks WHERE status='failed' AND retry_count >= $1`
	args := []interface{}{maxRetries}
	if clientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", len(args)+1)
		args = append(args, *clientID)
	}
	var count int
	err := r.DB.QueryRow(query, args...).Scan(&count)
	return count, err
}

func (r *WebhookRepository) Stats(clientID *int, daysBack int) (*model.WebhookStats, error) {
	if daysBack < 1 {
		daysBack = 30
	}

	query := `SELECT status, COUNT(*) FROM webhooks
              WHERE created_at >= NOW() - make_interval(days => $1)`
	args := []interface{}{daysBack}
	if clientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", len(args)+1)
		args = append(args, *clientID)
	}
	query += " GROUP BY status"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &model.WebhookStats{
		DaysBack: daysBack,
		ByStatus: map[string]int{
			model.WebhookStatusReceived:  0,
			model.WebhookStatusProcessed: 0,
			model.WebhookStatusFailed:    0,
		},
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	latencyQuery := `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (processed_at - created_at))), 0)
        FROM webhooks
        WHERE status = 'processed' AND processed_at IS NOT NULL
          AND processed_at >= NOW() - make_interval(days => $1)`
	latencyArgs := []interface{}{daysBack}
	if clientID != nil {
		latencyQuery += " AND client_id = $2"
		latencyArgs = append(latencyArgs, *clientID)
	}
	if err := r.DB.QueryRow(latencyQuery, latencyArgs...).Scan(&stats.AvgProcessingSeconds); err != nil {
		return nil, err
	}

	return stats, nil
}

func collectWebhooks(rows *sql.Rows) ([]*model.Webhook, error) {
	webhooks := []*model.Webhook{}
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

var _ WebhookRepositoryInterface = (*WebhookRepository)(nil)
