// internal/service/notifier.go
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/unclebandit/campaign-dispatch/internal/model"
	"github.com/unclebandit/campaign-dispatch/internal/sms"
)

// MessageSender is the slice of the dispatcher the notifier needs.
type MessageSender interface {
	Send(ctx context.Context, msg sms.Message) (*sms.DeliveryResult, error)
}

// ExecutionStatsProvider is the slice of the execution service the
// notifier needs.
type ExecutionStatsProvider interface {
	GetExecutionStats(campaignID *int) (*model.ExecutionStats, error)
}

// ProgressNotifier is the single mutable schedule for periodic progress
// summaries: at most one active timer per process. Starting replaces any
// previous schedule; stopping is idempotent. The schedule lives in memory
// only — a process restart loses it, which is accepted.
type ProgressNotifier struct {
	Stats  ExecutionStatsProvider
	Sender MessageSender
	To     string
	From   string

	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

func NewProgressNotifier(stats ExecutionStatsProvider, sender MessageSender, to, from string) *ProgressNotifier {
	return &ProgressNotifier{Stats: stats, Sender: sender, To: to, From: from}
}

// Start installs a periodic timer and fires one summary immediately. If a
// schedule is already active it is cancelled first, under the same lock, so
// a lingering old timer can never overlap the new one.
func (n *ProgressNotifier) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	n.mu.Lock()
	n.stopLocked()
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	n.ticker = ticker
	n.done = done
	n.mu.Unlock()

	go func() {
		n.notify()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n.notify()
			}
		}
	}()
}

// Stop cancels the schedule. Safe to call when not running.
func (n *ProgressNotifier) Stop() {
	n.mu.Lock()
	n.stopLocked()
	n.mu.Unlock()
}

func (n *ProgressNotifier) stopLocked() {
	if n.done == nil {
		return
	}
	close(n.done)
	n.ticker.Stop()
	n.done = nil
	n.ticker = nil
}

func (n *ProgressNotifier) IsRunning() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.done != nil
}

// notify composes one progress snapshot and sends it. A failed send is
// logged and the next tick proceeds independently.
func (n *ProgressNotifier) notify() {
	stats, err := n.Stats.GetExecutionStats(nil)
	if err != nil {
		log.Println("⚠️ progress snapshot failed:", err)
		return
	}

	body := fmt.Sprintf(
		"Campaign progress: %d executions (%d running, %d completed, %d failed). Sent %d, failed %d.",
		stats.Total,
		stats.ByStatus[model.ExecutionStatusRunning],
		stats.ByStatus[model.ExecutionStatusCompleted],
		stats.ByStatus[model.ExecutionStatusFailed],
		stats.TotalSent,
		stats.TotalFailed,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := n.Sender.Send(ctx, sms.Message{To: n.To, From: n.From, Body: body}); err != nil {
		log.Println("⚠️ progress notification send failed:", err)
	}
}
