package anomaly

import (
	"context"
	"sort"
	"strings"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// StoreHistory derives past anomalies from stored announcements. Reactions
// in the Normal band are left out.
type StoreHistory struct {
	store      interfaces.AnnouncementStore
	maxResults int
}

func NewStoreHistory(store interfaces.AnnouncementStore) *StoreHistory {
	return &StoreHistory{store: store, maxResults: DefaultConfig().MaxResults}
}

func (s *StoreHistory) History(ctx context.Context, symbol string) ([]types.HistoricalAnomaly, error) {
	anns, err := s.store.ListAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	var out []types.HistoricalAnomaly
	for _, a := range anns {
		if a.Symbol != symbol || risk.Categorize(a.RiskScore) == types.RiskNormal {
			continue
		}
		n := string(a.Category) + " announcement"
		if len(a.Drivers) > 0 {
			n += ": " + strings.Join(a.Drivers, "; ")
		}
		out = append(out, types.HistoricalAnomaly{
			Symbol:              a.Symbol,
			Date:                a.Timestamp.UTC().Format(dateLayout),
			AbnormalReturn:      a.AbnormalReturn,
			VolumeSpikeRatio:    a.VolumeSpikeRatio,
			VolatilityExpansion: a.VolatilityExpansion,
			RiskScore:           a.RiskScore,
			Note:                n,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if len(out) > s.maxResults {
		out = out[:s.maxResults]
	}
	return out, nil
}

var (
	_ interfaces.AnomalyHistory = (*StoreHistory)(nil)
	_ interfaces.AnomalyHistory = (*KiteHistory)(nil)
)
