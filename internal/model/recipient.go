// internal/model/recipient.go
package model

// Recipient is a send target attached to a campaign.
type Recipient struct {
	ID         int    `db:"id" json:"id"`
	CampaignID int    `db:"campaign_id" json:"campaign_id"`
	Phone      string `db:"phone" json:"phone"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
}

// TemplateData exposes recipient fields as placeholder values.
func (r *Recipient) TemplateData() map[string]string {
	return map[string]string{
		"phone":      r.Phone,
		"first_name": r.FirstName,
		"last_name":  r.LastName,
	}
}
