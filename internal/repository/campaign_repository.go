package repository

import (
	"database/sql"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/model"
)

// CampaignRepositoryInterface is the slim surface this core needs from the
// campaign aggregate: existence checks when creating executions, plus
// inserts for the seeder. Full campaign CRUD lives in the wider backend.
type CampaignRepositoryInterface interface {
	GetByID(id int) (*model.Campaign, error)
	Create(c *model.Campaign) error
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT id, name, channel, created_at FROM campaigns WHERE id=$1`
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.Channel, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	query := `
        INSERT INTO campaigns (name, channel, created_at)
        VALUES ($1, $2, NOW())
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, c.Name, c.Channel).Scan(&c.ID, &c.CreatedAt)
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
