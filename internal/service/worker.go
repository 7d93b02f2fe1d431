// internal/service/worker.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/unclebandit/campaign-dispatch/internal/model"
	"github.com/unclebandit/campaign-dispatch/internal/sms"
)

// SendJob is one per-recipient unit of a bulk send.
type SendJob struct {
	ExecutionID int    `json:"execution_id"`
	To          string `json:"to"`
	Body        string `json:"body"`
}

// ExecutionProgress is the slice of the execution service the worker needs.
type ExecutionProgress interface {
	UpdateProgress(id int, upd ProgressUpdate) (*model.CampaignExecution, error)
}

// DispatchWorker sends one job at a time and feeds the outcome back into
// the execution counters. One recipient failing never blocks the rest.
type DispatchWorker struct {
	Sender   MessageSender
	Progress ExecutionProgress
	From     string
}

func NewDispatchWorker(sender MessageSender, progress ExecutionProgress, from string) *DispatchWorker {
	return &DispatchWorker{Sender: sender, Progress: progress, From: from}
}

// Process dispatches the job and, on success, applies a sent delta. The
// delivery error is returned unrecorded so the consumer can decide between
// requeue and RecordFailure.
func (w *DispatchWorker) Process(ctx context.Context, job SendJob) error {
	_, err := w.Sender.Send(ctx, sms.Message{To: job.To, From: w.From, Body: job.Body})
	if err != nil {
		return err
	}

	exec, uerr := w.Progress.UpdateProgress(job.ExecutionID, ProgressUpdate{SentDelta: 1})
	if uerr != nil {
		// the message went out; the counter is recovered by stats reads
		log.Println("⚠️ failed to record sent delta:", uerr)
		return nil
	}
	w.maybeComplete(exec)
	return nil
}

// RecordFailure applies a failed delta once the consumer gives up on a job.
func (w *DispatchWorker) RecordFailure(job SendJob, errMsg string) {
	exec, err := w.Progress.UpdateProgress(job.ExecutionID, ProgressUpdate{
		FailedDelta:  1,
		ErrorMessage: &errMsg,
	})
	if err != nil {
		log.Println("⚠️ failed to record failed delta:", err)
		return
	}
	w.maybeComplete(exec)
}

// maybeComplete marks the execution completed once the counters reach the
// target. Partial completion with a nonzero failed_count is normal.
func (w *DispatchWorker) maybeComplete(exec *model.CampaignExecution) {
	if exec == nil || exec.TargetCount == nil {
		return
	}
	if model.IsTerminalExecutionStatus(exec.Status) {
		return
	}
	if exec.SentCount+exec.FailedCount >= *exec.TargetCount {
		status := model.ExecutionStatusCompleted
		if _, err := w.Progress.UpdateProgress(exec.ID, ProgressUpdate{Status: &status}); err != nil {
			log.Println("⚠️ failed to complete execution:", err)
		}
	}
}

// Start consumes jobs from a channel until it closes. A failed send is
// recorded immediately; channel consumers have no requeue.
func (w *DispatchWorker) Start(jobs <-chan SendJob) {
	for job := range jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := w.Process(ctx, job); err != nil {
			w.RecordFailure(job, err.Error())
		}
		cancel()
	}
}
