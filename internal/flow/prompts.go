package flow

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Amritha902/infocruxapp/internal/llm"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

const (
	ToolSearchTheWeb              = "searchTheWeb"
	ToolLookupHistoricalAnomalies = "lookupHistoricalAnomalies"
)

var funcs = template.FuncMap{
	"bands":    bands,
	"entities": entityList,
}

// bands renders the score ranges from the canonical thresholds.
func bands() string {
	return fmt.Sprintf("0-%g: %s, %g-%g: %s, %g-100: %s",
		risk.NormalCeiling, types.RiskNormal,
		risk.NormalCeiling, risk.ModerateCeiling, types.RiskModerate,
		risk.ModerateCeiling, types.RiskAbnormal)
}

func entityList() string {
	return strings.Join(entityTypeValues(), ", ")
}

const chatSystem = `You are "Infocrux AI", an expert financial analyst chat assistant for Indian equities listed on the NSE. Your answers are structured, data-driven and strictly neutral. Never give investment advice.`

var chatTemplate = template.Must(template.New("intelligenceChat").Funcs(funcs).Parse(`
User's query: "{{.UserQuery}}"

{{with .StockContext -}}
Context for {{.CompanyName}} ({{.Symbol}}):
{{with .Announcement -}}
- A corporate announcement was made on {{.Timestamp}}.
- Announcement text: "{{.FullText}}"
- Market reaction metrics:
  - Abnormal return: {{.AbnormalReturn}}%
  - Volume spike ratio: {{.VolumeSpikeRatio}}x
  - Resulting risk score: {{.RiskScore}}/100
{{- else -}}
- No recent announcement is in context for this stock.
{{- end}}
{{- else -}}
- No stock symbol was detected in the query.
{{- end}}

Task:
{{if .StockContext -}}
- Build a "marketAnalysis" object. Summarize the stock's situation in one sentence. Derive "riskCategory" from "riskScore" ({{bands}}). Explain the market reaction using only the metrics above. You may call "lookupHistoricalAnomalies" to compare with past abnormal days for this symbol.
{{- if .StockContext.Announcement}}
- If the query concerns the announcement, build an "announcementAnalysis" object: summarize the announcement text and extract the relevant entities typed as one of: {{entities}}.
{{- end}}
- Give 3 to 4 relevant follow-up questions in "followUpSuggestions".
{{- else -}}
- If the query is a general question (for example "what is a P/E ratio?"), call the "searchTheWeb" tool and answer from its results.
- Build a "generalResponse" object with a concise answer and the URLs of any sources used.
- If the question needs a stock and none was given, say that a symbol such as "RELIANCE.NS" or "TCS.NS" is required for analysis.
- Give 3 to 4 example questions in "followUpSuggestions".
{{- end}}

Always answer in the structured output format.
`))

const summarySystem = `You are an expert financial analyst processing corporate announcements filed on Indian exchanges.`

var summaryTemplate = template.Must(template.New("announcementSummary").Funcs(funcs).Parse(`
First, write a concise summary of the announcement covering its main points and potential implications.
Second, extract every relevant entity mentioned and assign each exactly one type from: {{entities}}.
Acquiring and target companies are typed Company. Directors and executives are typed Individual. Use Other when nothing else fits.

Corporate announcement:
{{.FullText}}
`))

const riskSystem = `You are a financial analyst specializing in market reactions to corporate announcements.`

var riskTemplate = template.Must(template.New("riskExplanation").Funcs(funcs).Parse(`
Explain the model-generated risk score for stock '{{.Symbol}}' at announcement time '{{.Timestamp}}'.

The risk score is {{.RiskScore}} on a 0-100 scale. Classify it into a category ({{bands}}).

Supporting market metrics:
- Abnormal return: {{.AbnormalReturn}}% (positive means the stock beat its expected return, negative means it lagged).
- Volume spike ratio: {{.VolumeSpikeRatio}}x (above 1 means heavier than average trading).
{{with .ExplanationContext}}
Additional context: "{{.}}"
{{end}}
Write a short paragraph in "explanation" on why this score was assigned and what it says about the market's reaction, and give the "category".
`))

var categoryValues = []string{string(types.RiskNormal), string(types.RiskModerate), string(types.RiskAbnormal)}

func entityTypeValues() []string {
	out := make([]string, len(types.EntityTypes))
	for i, t := range types.EntityTypes {
		out[i] = string(t)
	}
	return out
}

func entitySchema() *llm.Schema {
	return llm.Array("Key entities identified in the announcement.", llm.Object("", map[string]*llm.Schema{
		"name": llm.String("Name of the entity."),
		"type": llm.Enum("Entity type.", entityTypeValues()...),
	}, "name", "type"))
}

var chatSchema = llm.Object("Structured chat answer.", map[string]*llm.Schema{
	"marketAnalysis": llm.Object("Analysis of the stock in context.", map[string]*llm.Schema{
		"marketSummary":    llm.String("One-sentence summary of the stock's current situation."),
		"riskScore":        llm.Number("Risk score, 0-100.").WithRange(risk.MinScore, risk.MaxScore),
		"riskCategory":     llm.Enum("Band of the risk score.", categoryValues...),
		"abnormalReturn":   llm.Number("Abnormal return in percent."),
		"volumeSpikeRatio": llm.Number("Volume relative to average."),
		"explanation":      llm.String("Explanation of the market reaction and risk score."),
	}, "marketSummary"),
	"announcementAnalysis": llm.Object("Summary of the announcement in context.", map[string]*llm.Schema{
		"summary":           llm.String("Concise summary of the announcement."),
		"extractedEntities": entitySchema(),
	}, "summary"),
	"generalResponse": llm.Object("Answer to a general question.", map[string]*llm.Schema{
		"summary": llm.String("Direct, concise answer."),
		"sources": llm.Array("URLs of web sources used.", llm.String("URL")),
	}, "summary"),
	"followUpSuggestions": llm.Array("3 to 4 relevant follow-up questions.", llm.String("Question")).WithItems(3, 4),
}, "followUpSuggestions")

var summarySchema = llm.Object("Announcement summary and entities.", map[string]*llm.Schema{
	"summary":           llm.String("Concise summary of the announcement."),
	"extractedEntities": entitySchema(),
}, "summary", "extractedEntities")

var riskSchema = llm.Object("Risk score explanation.", map[string]*llm.Schema{
	"explanation": llm.String("Short paragraph explaining the score."),
	"category":    llm.Enum("Band of the risk score.", categoryValues...),
}, "explanation", "category")

var searchTool = llm.Tool{
	Name:        ToolSearchTheWeb,
	Description: "Searches the web for a query. Use it for general financial questions or companies and topics missing from the provided context.",
	Parameters: llm.Object("", map[string]*llm.Schema{
		"query": llm.String("Search query."),
	}, "query"),
}

var anomalyTool = llm.Tool{
	Name:        ToolLookupHistoricalAnomalies,
	Description: "Returns past abnormal trading days for an NSE symbol with their abnormal return and volume spike ratio.",
	Parameters: llm.Object("", map[string]*llm.Schema{
		"symbol": llm.String("NSE symbol, e.g. RELIANCE.NS."),
	}, "symbol"),
}
