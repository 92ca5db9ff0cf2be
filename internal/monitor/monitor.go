// Package monitor scans the live risk board and raises alerts for
// statistically abnormal announcements.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// Report is the result of one scan.
type Report struct {
	GeneratedAt  time.Time            `json:"generatedAt"`
	Distribution risk.Distribution    `json:"distribution"`
	HighRisk     int                  `json:"highRisk"`
	Elevated     int                  `json:"elevated"`
	Items        []types.LiveRiskItem `json:"items"`
	Alerts       []types.Announcement `json:"alerts"`
}

// Monitor tracks which announcements were already alerted on. An ID is
// reserved in inflight while a notification for it is being delivered.
type Monitor struct {
	store    interfaces.DataStore
	notifier interfaces.Notifier
	now      func() time.Time

	mu       sync.Mutex
	notified map[string]bool
	inflight map[string]bool
}

// New creates a monitor. A nil notifier disables alerting.
func New(store interfaces.DataStore, notifier interfaces.Notifier) *Monitor {
	return &Monitor{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		notified: make(map[string]bool),
		inflight: make(map[string]bool),
	}
}

// Scan builds the board report and notifies each abnormal announcement
// once, also across concurrent scans. Alerts are marked sent only after the
// notifier succeeds; a failed delivery releases them for the next scan.
func (m *Monitor) Scan(ctx context.Context) (*Report, error) {
	items, err := m.store.LiveRisk(ctx)
	if err != nil {
		return nil, fmt.Errorf("live risk: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].RiskScore > items[j].RiskScore })

	scores := make([]float64, 0, len(items))
	for _, it := range items {
		scores = append(scores, it.RiskScore)
	}
	dist := risk.Distribute(scores...)

	report := &Report{
		GeneratedAt:  m.now().UTC(),
		Distribution: dist,
		HighRisk:     dist.Abnormal,
		Elevated:     dist.Moderate,
		Items:        items,
		Alerts:       []types.Announcement{},
	}

	if m.notifier == nil {
		return report, nil
	}
	fresh, err := m.reserveAlerts(ctx)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return report, nil
	}

	err = m.notifier.Notify(ctx, fresh)
	m.release(fresh, err == nil)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to deliver risk alerts", err, "alerts", len(fresh))
		return report, nil
	}

	report.Alerts = fresh
	logger.Info(ctx, "Risk alerts delivered", "alerts", len(fresh), "high_risk", report.HighRisk)
	return report, nil
}

// reserveAlerts returns the abnormal announcements neither sent nor being
// sent, and marks them inflight.
func (m *Monitor) reserveAlerts(ctx context.Context) ([]types.Announcement, error) {
	anns, err := m.store.FilterByRiskThreshold(ctx, risk.ModerateCeiling)
	if err != nil {
		return nil, fmt.Errorf("announcements: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.Announcement
	for _, a := range anns {
		if risk.IsAlert(a.RiskScore) && !m.notified[a.ID] && !m.inflight[a.ID] {
			m.inflight[a.ID] = true
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Monitor) release(alerts []types.Announcement, sent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range alerts {
		delete(m.inflight, a.ID)
		if sent {
			m.notified[a.ID] = true
		}
	}
}
