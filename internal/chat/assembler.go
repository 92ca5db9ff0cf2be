// Package chat turns a chat history into a grounded model request.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/symbol"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// Assembler builds the stock context for a query from the data store.
type Assembler struct {
	anns   interfaces.AnnouncementStore
	market interfaces.MarketStore
}

func NewAssembler(store interfaces.DataStore) *Assembler {
	return &Assembler{anns: store, market: store}
}

// Assemble has three outcomes: a full context when the query names a
// symbol with an announcement, an identity-only context when the symbol has
// none, and nil when the query names no symbol.
func (a *Assembler) Assemble(ctx context.Context, query string) (*types.StockContext, error) {
	sym, ok := symbol.Extract(query)
	if !ok {
		logger.Debug(ctx, "No symbol in query")
		return nil, nil
	}

	ann, err := a.anns.FindBySymbol(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("failed to look up announcement for %s: %w", sym, err)
	}
	if ann != nil {
		logger.Debug(ctx, "Assembled announcement context", "symbol", sym, "risk_score", ann.RiskScore)
		return FromAnnouncement(ann), nil
	}

	name := sym
	stock, err := a.market.FindStock(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("failed to look up stock %s: %w", sym, err)
	}
	if stock != nil && stock.Name != "" {
		name = stock.Name
	}
	logger.Debug(ctx, "Assembled identity-only context", "symbol", sym, "company", name)
	return &types.StockContext{Symbol: sym, CompanyName: name}, nil
}

// FromAnnouncement copies the fields the model sees out of an announcement.
func FromAnnouncement(ann *types.Announcement) *types.StockContext {
	return &types.StockContext{
		Symbol:      ann.Symbol,
		CompanyName: ann.CompanyName,
		Announcement: &types.AnnouncementContext{
			FullText:         ann.FullText,
			Timestamp:        ann.Timestamp.UTC().Format(time.RFC3339),
			RiskScore:        ann.RiskScore,
			AbnormalReturn:   ann.AbnormalReturn,
			VolumeSpikeRatio: ann.VolumeSpikeRatio,
		},
	}
}
