package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/types"
)

var ErrNoUserQuery = errors.New("no user query found")

type Service struct {
	assembler *Assembler
	analyst   interfaces.Analyst
}

func NewService(store interfaces.DataStore, analyst interfaces.Analyst) *Service {
	return &Service{assembler: NewAssembler(store), analyst: analyst}
}

// Respond answers the most recent user message in history.
func (s *Service) Respond(ctx context.Context, history []types.Message) (*types.ChatResponse, error) {
	query, ok := LastUserQuery(history)
	if !ok {
		return nil, ErrNoUserQuery
	}

	sc, err := s.assembler.Assemble(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.analyst.IntelligenceChat(ctx, types.ChatInput{UserQuery: query, StockContext: sc})
}

// Reply is Respond wrapped as an assistant message.
func (s *Service) Reply(ctx context.Context, history []types.Message) (*types.Message, error) {
	resp, err := s.Respond(ctx, history)
	if err != nil {
		return nil, err
	}
	return &types.Message{
		ID:      uuid.NewString(),
		Role:    types.RoleAssistant,
		Content: Headline(resp),
		UI:      resp,
	}, nil
}

func LastUserQuery(history []types.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != types.RoleUser {
			continue
		}
		if q := strings.TrimSpace(history[i].Content); q != "" {
			return q, true
		}
		return "", false
	}
	return "", false
}

// Headline is the plain-text lead of a structured response.
func Headline(resp *types.ChatResponse) string {
	switch {
	case resp == nil:
		return ""
	case resp.MarketAnalysis != nil:
		return resp.MarketAnalysis.MarketSummary
	case resp.GeneralResponse != nil:
		return resp.GeneralResponse.Summary
	case resp.AnnouncementAnalysis != nil:
		return resp.AnnouncementAnalysis.Summary
	}
	return ""
}
