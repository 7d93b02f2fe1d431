// internal/model/campaign.go
package model

import "time"

// Campaign is the owner record for executions. Campaign CRUD lives in the
// wider backend; this core only needs existence checks and seed data.
type Campaign struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Channel   string    `db:"channel" json:"channel"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
