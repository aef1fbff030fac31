package service

import (
	"sync"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/util"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// Snapshot is the result of one completed scan as pushed to subscribers.
type Snapshot struct {
	ScanID      string          `json:"scanId"`
	Strategy    string          `json:"strategy"`
	Exchange    string          `json:"exchange"`
	Timeframe   string          `json:"timeframe"`
	GeneratedAt int64           `json:"generatedAt"`
	Signals     []models.Signal `json:"signals"`
}

// Hub fans scan snapshots out to subscribers. A subscriber that falls behind misses
// snapshots instead of blocking the scan.
type Hub struct {
	mu    sync.Mutex
	chans []chan Snapshot
	log   *util.Logger
}

func NewHub() *Hub {
	return &Hub{log: util.NewLogger("component", "hub")}
}

// Subscribe registers a new listener. The returned cancel func unregisters and closes
// the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, common.ListenerChannelSize)
	h.mu.Lock()
	h.chans = append(h.chans, ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for i, c := range h.chans {
				if c == ch {
					h.chans = append(h.chans[:i], h.chans[i+1:]...)
					break
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) Publish(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.chans {
		select {
		case ch <- s:
		default:
			h.log.Warn(common.ErrCodeChannelFull, common.ErrMsgChannelFull, "Dropped snapshot due to full subscriber channel",
				"scan_id", s.ScanID, "strategy", s.Strategy)
		}
	}
}

// Subscribers returns the number of registered listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.chans)
}
