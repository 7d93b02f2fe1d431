package repository

import (
	"database/sql"

	"github.com/unclebandit/campaign-dispatch/internal/model"
)

// RecipientRepositoryInterface defines methods used by the send driver
type RecipientRepositoryInterface interface {
	GetByID(id int) (*model.Recipient, error)
	ListByCampaign(campaignID int) ([]model.Recipient, error)
}

// RecipientRepository is the concrete implementation
type RecipientRepository struct {
	DB *sql.DB
}

// GetByID fetches a recipient by ID
func (r *RecipientRepository) GetByID(id int) (*model.Recipient, error) {
	query := `
        SELECT id, campaign_id, phone, first_name, last_name
        FROM recipients
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var rec model.Recipient
	if err := row.Scan(&rec.ID, &rec.CampaignID, &rec.Phone, &rec.FirstName, &rec.LastName); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &rec, nil
}

// ListByCampaign fetches every recipient attached to a campaign, used when
// a send is started without an explicit recipient list
func (r *RecipientRepository) ListByCampaign(campaignID int) ([]model.Recipient, error) {
	query := `
        SELECT id, campaign_id, phone, first_name, last_name
        FROM recipients
        WHERE campaign_id = $1
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var rec model.Recipient
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Phone, &rec.FirstName, &rec.LastName); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
