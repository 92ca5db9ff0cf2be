package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/portfolio"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/symbol"
	"github.com/Amritha902/infocruxapp/internal/types"
)

type chatRequest struct {
	Messages []types.Message `json:"messages"`
}

type summarizeRequest struct {
	FullText string `json:"fullText"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.store.Holdings(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to load holdings", err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio.Summarize(holdings))
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.Watchlist(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to load watchlist", err)
		return
	}
	for i := range items {
		items[i].RiskLevel = string(risk.LevelOf(items[i].RiskScore))
		items[i].RiskBadge = risk.Badge(items[i].RiskScore)
	}
	writeJSON(w, http.StatusOK, items)
}

// labelAnnouncement fills the badge fields from the canonical band.
func labelAnnouncement(a *types.Announcement) {
	a.RiskLevel = string(risk.LevelOf(a.RiskScore))
	a.RiskBadge = risk.Badge(a.RiskScore)
}

func labelAnnouncements(anns []types.Announcement) []types.Announcement {
	for i := range anns {
		labelAnnouncement(&anns[i])
	}
	return anns
}

// GET /api/announcements?min_risk=60
func (s *Server) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("min_risk"))
	if raw == "" {
		anns, err := s.store.ListAnnouncements(r.Context())
		if err != nil {
			s.internalError(w, r, "Failed to list announcements", err)
			return
		}
		writeJSON(w, http.StatusOK, labelAnnouncements(anns))
		return
	}

	minScore, err := strconv.ParseFloat(raw, 64)
	if err != nil || !risk.ValidScore(minScore) {
		writeError(w, http.StatusBadRequest, "min_risk must be a number between 0 and 100")
		return
	}
	anns, err := s.store.FilterByRiskThreshold(r.Context(), minScore)
	if err != nil {
		s.internalError(w, r, "Failed to filter announcements", err)
		return
	}
	writeJSON(w, http.StatusOK, labelAnnouncements(anns))
}

func (s *Server) handleAnnouncement(w http.ResponseWriter, r *http.Request) {
	sym := symbol.Normalize(r.PathValue("symbol"))
	ann, err := s.store.FindBySymbol(r.Context(), sym)
	if err != nil {
		s.internalError(w, r, "Failed to load announcement", err)
		return
	}
	if ann == nil {
		writeError(w, http.StatusNotFound, "No announcement for "+sym)
		return
	}
	labelAnnouncement(ann)
	writeJSON(w, http.StatusOK, ann)
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	sym := symbol.Normalize(r.PathValue("symbol"))
	stock, err := s.store.FindStock(r.Context(), sym)
	if err != nil {
		s.internalError(w, r, "Failed to load stock", err)
		return
	}
	if stock == nil {
		writeError(w, http.StatusNotFound, "Unknown stock "+sym)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	items, err := s.news.News(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to load news", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRiskMonitor(w http.ResponseWriter, r *http.Request) {
	report, err := s.monitor.Scan(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to build risk monitor", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.searcher.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.internalError(w, r, "Search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// POST /api/chat answers the last user message of the conversation.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	for _, m := range req.Messages {
		if err := types.Validate(m); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid message: "+err.Error())
			return
		}
	}

	reply, err := s.chat.Reply(r.Context(), req.Messages)
	if err != nil {
		s.flowError(w, r, "Chat failed", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	summary, err := s.analyst.SummarizeAnnouncement(r.Context(), req.FullText)
	if err != nil {
		s.flowError(w, r, "Summarization failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExplainRisk(w http.ResponseWriter, r *http.Request) {
	var req types.RiskExplanationInput
	if !decodeBody(w, r, &req) {
		return
	}
	req.Symbol = symbol.Normalize(req.Symbol)
	explanation, err := s.analyst.ExplainRiskScore(r.Context(), req)
	if err != nil {
		s.flowError(w, r, "Risk explanation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.ErrorWithErr(r.Context(), msg, err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, msg)
}

func (s *Server) flowError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithErr(r.Context(), msg, err, "path", r.URL.Path)
	}
	writeError(w, status, msg+": "+err.Error())
}
