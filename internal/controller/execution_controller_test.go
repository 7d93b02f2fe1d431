package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/campaign-dispatch/internal/controller"
	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/model"
	"github.com/unclebandit/campaign-dispatch/internal/service"
)

type MockExecutionRepo struct {
	mu    sync.Mutex
	seq   int
	execs map[int]*model.CampaignExecution
}

func NewMockExecutionRepo() *MockExecutionRepo {
	return &MockExecutionRepo{execs: map[int]*model.CampaignExecution{}}
}

func (m *MockExecutionRepo) Create(e *model.CampaignExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e.ID = m.seq
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	m.execs[e.ID] = &stored
	return nil
}

func (m *MockExecutionRepo) GetByID(id int) (*model.CampaignExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.execs[id]
	if !ok {
		return nil, appErrors.NewExecutionNotFound(id)
	}
	out := *e
	return &out, nil
}

func (m *MockExecutionRepo) ListByCampaign(campaignID int) ([]*model.CampaignExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.CampaignExecution{}
	for _, e := range m.execs {
		if e.CampaignID == campaignID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockExecutionRepo) ApplyProgress(id, sentDelta, failedDelta int, status, errorMessage *string) (*model.CampaignExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.execs[id]
	if !ok {
		return nil, appErrors.NewExecutionNotFound(id)
	}
	e.SentCount += sentDelta
	e.FailedCount += failedDelta
	if status != nil && !model.IsTerminalExecutionStatus(e.Status) {
		e.Status = *status
	}
	if errorMessage != nil {
		e.ErrorMessage = *errorMessage
	}
	e.UpdatedAt = time.Now()
	out := *e
	return &out, nil
}

func (m *MockExecutionRepo) Stats(campaignID *int) (*model.ExecutionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &model.ExecutionStats{ByStatus: map[string]int{}}
	for _, e := range m.execs {
		if campaignID != nil && e.CampaignID != *campaignID {
			continue
		}
		stats.Total++
		stats.ByStatus[e.Status]++
		stats.TotalSent += e.SentCount
		stats.TotalFailed += e.FailedCount
	}
	return stats, nil
}

func newExecutionRouter(repo *MockExecutionRepo) *chi.Mux {
	ctrl := &controller.ExecutionController{
		ExecutionService: &service.ExecutionService{ExecutionRepo: repo},
	}
	r := chi.NewRouter()
	r.Post("/campaigns/{id}/executions", ctrl.CreateExecution)
	r.Get("/campaigns/{id}/executions", ctrl.ListByCampaign)
	r.Patch("/executions/{id}/progress", ctrl.UpdateProgress)
	r.Get("/executions/stats", ctrl.Stats)
	return r
}

func TestCreateExecutionHandler(t *testing.T) {
	repo := NewMockExecutionRepo()
	router := newExecutionRouter(repo)

	body, _ := json.Marshal(map[string]interface{}{
		"execution_type": "immediate",
		"target_count":   100,
	})
	req := httptest.NewRequest("POST", "/campaigns/1/executions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var exec model.CampaignExecution
	if err := json.Unmarshal(w.Body.Bytes(), &exec); err != nil {
		t.Fatal(err)
	}
	if exec.Status != model.ExecutionStatusQueued {
		t.Errorf("new execution must be queued, got %s", exec.Status)
	}
	if exec.TargetCount == nil || *exec.TargetCount != 100 {
		t.Errorf("target_count not carried through: %+v", exec.TargetCount)
	}
}

func TestCreateExecutionHandlerRejectsBadType(t *testing.T) {
	router := newExecutionRouter(NewMockExecutionRepo())

	req := httptest.NewRequest("POST", "/campaigns/1/executions",
		bytes.NewReader([]byte(`{"execution_type": "hourly"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdateProgressHandler(t *testing.T) {
	repo := NewMockExecutionRepo()
	router := newExecutionRouter(repo)

	repo.Create(&model.CampaignExecution{CampaignID: 1, ExecutionType: "immediate", Status: model.ExecutionStatusQueued})

	req := httptest.NewRequest("PATCH", "/executions/1/progress",
		bytes.NewReader([]byte(`{"sent_delta": 2, "status": "running"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var exec model.CampaignExecution
	json.Unmarshal(w.Body.Bytes(), &exec)
	if exec.SentCount != 2 || exec.Status != model.ExecutionStatusRunning {
		t.Errorf("unexpected state after progress update: %+v", exec)
	}
}

func TestExecutionStatsHandler(t *testing.T) {
	repo := NewMockExecutionRepo()
	router := newExecutionRouter(repo)

	repo.Create(&model.CampaignExecution{CampaignID: 1, Status: model.ExecutionStatusCompleted, SentCount: 5, FailedCount: 1})
	repo.Create(&model.CampaignExecution{CampaignID: 2, Status: model.ExecutionStatusRunning, SentCount: 3})

	req := httptest.NewRequest("GET", "/executions/stats?campaign_id=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stats model.ExecutionStats
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Total != 1 || stats.TotalSent != 5 || stats.TotalFailed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
