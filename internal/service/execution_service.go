// internal/service/execution_service.go
package service

import (
	"fmt"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/model"
	"github.com/unclebandit/campaign-dispatch/internal/repository"
)

// ExecutionService owns the campaign execution state machine.
type ExecutionService struct {
	ExecutionRepo repository.ExecutionRepositoryInterface
	CampaignRepo  repository.CampaignRepositoryInterface
}

// ProgressUpdate carries counter deltas and an optional status change from
// the send driver. Deltas are applied relative to the stored value, never
// as absolute overwrites.
type ProgressUpdate struct {
	SentDelta    int     `json:"sent_delta"`
	FailedDelta  int     `json:"failed_delta"`
	Status       *string `json:"status,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// CreateExecution inserts a new execution in queued with counters at zero.
// The campaign must exist — an application-level check, not a foreign key.
func (s *ExecutionService) CreateExecution(campaignID int, executionType string, targetCount *int) (*model.CampaignExecution, error) {
	if !model.IsValidExecutionType(executionType) {
		return nil, appErrors.NewValidation("execution_type", fmt.Sprintf("unknown type %q", executionType))
	}
	if targetCount != nil && *targetCount < 0 {
		return nil, appErrors.NewValidation("target_count", "must not be negative")
	}

	if s.CampaignRepo != nil {
		if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
			return nil, err
		}
	}

	e := &model.CampaignExecution{
		CampaignID:    campaignID,
		ExecutionType: executionType,
		Status:        model.ExecutionStatusQueued,
		TargetCount:   targetCount,
	}
	if err := s.ExecutionRepo.Create(e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateProgress applies counter deltas and/or a status transition. The
// repository serializes concurrent patches on the row; a terminal status is
// never reverted by a late-arriving update, while counters still land.
func (s *ExecutionService) UpdateProgress(id int, upd ProgressUpdate) (*model.CampaignExecution, error) {
	if upd.SentDelta < 0 || upd.FailedDelta < 0 {
		return nil, appErrors.NewValidation("delta", "counter deltas must not be negative")
	}
	if upd.Status != nil && !model.IsValidExecutionStatus(*upd.Status) {
		return nil, appErrors.NewValidation("status", fmt.Sprintf("unknown status %q", *upd.Status))
	}
	if upd.SentDelta == 0 && upd.FailedDelta == 0 && upd.Status == nil && upd.ErrorMessage == nil {
		return nil, appErrors.NewValidation("update", "nothing to apply")
	}

	return s.ExecutionRepo.ApplyProgress(id, upd.SentDelta, upd.FailedDelta, upd.Status, upd.ErrorMessage)
}

// GetExecution fetches a single execution by id.
func (s *ExecutionService) GetExecution(id int) (*model.CampaignExecution, error) {
	return s.ExecutionRepo.GetByID(id)
}

// GetExecutionsByCampaign lists a campaign's executions, newest first.
func (s *ExecutionService) GetExecutionsByCampaign(campaignID int) ([]*model.CampaignExecution, error) {
	return s.ExecutionRepo.ListByCampaign(campaignID)
}

// GetExecutionStats aggregates counts by status plus total sent/failed,
// optionally scoped to one campaign. Pure read.
func (s *ExecutionService) GetExecutionStats(campaignID *int) (*model.ExecutionStats, error) {
	return s.ExecutionRepo.Stats(campaignID)
}
