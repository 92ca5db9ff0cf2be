// Package alertlog journals every alert the monitor sends as one JSON line
// in a file per IST trading day.
package alertlog

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

var ist = time.FixedZone("IST", 19800)

type Entry struct {
	Time             string   `json:"time"`
	AnnouncementID   string   `json:"announcementId"`
	Symbol           string   `json:"symbol"`
	Company          string   `json:"company"`
	Category         string   `json:"category"`
	RiskScore        float64  `json:"riskScore"`
	AbnormalReturn   float64  `json:"abnormalReturn"`
	VolumeSpikeRatio float64  `json:"volumeSpikeRatio"`
	Drivers          []string `json:"drivers,omitempty"`
}

// Journal appends entries under dir. It is safe for concurrent use.
type Journal struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

var _ interfaces.Notifier = (*Journal)(nil)

func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) dailyFilepath(t time.Time) string {
	return filepath.Join(j.dir, t.In(ist).Format("2006-01-02")+".txt")
}

// Notify writes one line per alert.
func (j *Journal) Notify(ctx context.Context, alerts []types.Announcement) error {
	if len(alerts) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().In(ist)
	p := j.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, a := range alerts {
		b, err := json.Marshal(Entry{
			Time:             now.Format("2006-01-02 15:04:05"),
			AnnouncementID:   a.ID,
			Symbol:           a.Symbol,
			Company:          a.CompanyName,
			Category:         string(risk.Categorize(a.RiskScore)),
			RiskScore:        a.RiskScore,
			AbnormalReturn:   a.AbnormalReturn,
			VolumeSpikeRatio: a.VolumeSpikeRatio,
			Drivers:          a.Drivers,
		})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f, string(b)); err != nil {
			return err
		}
	}
	logger.Debug(ctx, "Alerts journaled", "file", p, "count", len(alerts))
	return nil
}

// Read returns the entries journaled on the IST day of t.
func (j *Journal) Read(t time.Time) ([]Entry, error) {
	b, err := os.ReadFile(j.dailyFilepath(t))
	if err != nil {
		return nil, err
	}
	var out []Entry
	dec := json.NewDecoder(bytes.NewReader(b))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// CompressOlder gzips day files last modified more than retentionDays ago
// and removes the originals. Files that fail are skipped.
func (j *Journal) CompressOlder(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)

	return filepath.WalkDir(j.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == j.dir && os.IsNotExist(err) {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := compress(p); err != nil {
			logger.Warn(ctx, "Failed to compress alert journal", "file", p, "error", err)
		}
		return nil
	})
}

func compress(p string) error {
	gz := p + ".gz"
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(gz)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	_ = in.Close()
	return os.Remove(p)
}
