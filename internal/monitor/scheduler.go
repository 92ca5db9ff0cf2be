package monitor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Amritha902/infocruxapp/internal/logger"
)

// DefaultSchedule runs every five minutes during NSE trading hours, Monday
// to Friday, in the scheduler's time zone.
const DefaultSchedule = "*/5 9-15 * * 1-5"

// Scheduler runs monitor scans on a cron schedule.
type Scheduler struct {
	monitor *Monitor
	cron    *cron.Cron
	timeout time.Duration
	onScan  func(*Report)
}

// NewScheduler creates a scheduler using the Asia/Kolkata zone when it is
// available. onScan, when non-nil, receives every successful report.
func NewScheduler(m *Monitor, onScan func(*Report)) *Scheduler {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+30*60)
	}
	return &Scheduler{
		monitor: m,
		cron:    cron.New(cron.WithLocation(loc)),
		timeout: 2 * time.Minute,
		onScan:  onScan,
	}
}

// Start validates the schedule and begins running scans.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if _, err := s.cron.AddFunc(schedule, s.runScan); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info(context.Background(), "Risk monitor scheduler started", "schedule", schedule)
	return nil
}

// Stop waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info(context.Background(), "Risk monitor scheduler stopped")
}

// RunNow triggers an immediate scan in the background.
func (s *Scheduler) RunNow() {
	go s.runScan()
}

func (s *Scheduler) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	timer := logger.StartOperation(ctx, "monitor.Scan")
	report, err := s.monitor.Scan(timer.GetContext())
	if err != nil {
		timer.EndWithError(err)
		return
	}
	timer.End("high_risk", report.HighRisk, "elevated", report.Elevated, "alerts", len(report.Alerts))

	if s.onScan != nil {
		s.onScan(report)
	}
}

// ValidateSchedule reports whether expr is a standard five-field cron
// expression.
func ValidateSchedule(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}
