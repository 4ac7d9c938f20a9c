package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/mcp-forge/forge-backend/internal/logging"
	"github.com/mcp-forge/forge-backend/internal/provider"
)

// Analyzer classifies a normalized request into an Intent. It asks the
// provider for a structured classification and falls back to keyword
// heuristics so the pipeline never blocks on an external outage.
type Analyzer struct {
	gen provider.TextGenerator
}

func NewAnalyzer(gen provider.TextGenerator) *Analyzer {
	return &Analyzer{gen: gen}
}

const classifySystem = `You classify requests for MCP server generation.
Respond with a single JSON object and nothing else, in this exact schema:
{"domain": string, "integrations": [string], "tool_names": [string],
"requires_database": bool, "requires_user_data": bool,
"requires_scheduling": bool, "requires_auth": bool}`

type classification struct {
	Domain             string   `json:"domain"`
	Integrations       []string `json:"integrations"`
	ToolNames          []string `json:"tool_names"`
	RequiresDatabase   bool     `json:"requires_database"`
	RequiresUserData   bool     `json:"requires_user_data"`
	RequiresScheduling bool     `json:"requires_scheduling"`
	RequiresAuth       bool     `json:"requires_auth"`
}

// Analyze never returns an error; a failed provider call degrades to the
// heuristic classification with Confidence set accordingly.
func (a *Analyzer) Analyze(ctx context.Context, req domain.GenerationRequest) domain.Intent {
	logger := logging.NewLogger(ctx)

	heuristic := a.heuristic(req)

	if a.gen == nil || !a.gen.Configured() {
		return heuristic
	}

	raw, err := a.gen.Generate(ctx, provider.Request{
		System:    classifySystem,
		User:      fmt.Sprintf("Classify this MCP request: %s", req.Prompt),
		MaxTokens: 500,
	})
	if err != nil {
		logger.LogWarnf("analyze_intent", "provider classification failed, using heuristics: %v", err)
		return heuristic
	}

	var c classification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &c); err != nil || c.Domain == "" {
		logger.LogWarnf("analyze_intent", "unparseable classification, using heuristics: %v", err)
		return heuristic
	}

	out := heuristic
	out.Domain = strings.ToLower(c.Domain)
	out.Confidence = domain.ConfidenceDerived
	if len(c.Integrations) > 0 {
		out.Integrations = dedupe(c.Integrations)
	}
	if len(c.ToolNames) > 0 {
		out.ToolNames = dedupe(c.ToolNames)
	}
	out.RequiresDatabase = out.RequiresDatabase || c.RequiresDatabase
	out.RequiresUserData = out.RequiresUserData || c.RequiresUserData
	out.RequiresScheduling = out.RequiresScheduling || c.RequiresScheduling
	out.RequiresAuth = out.RequiresAuth || c.RequiresAuth
	return out
}

// heuristic builds an Intent from the keyword tables alone.
func (a *Analyzer) heuristic(req domain.GenerationRequest) domain.Intent {
	lower := strings.ToLower(req.Prompt)

	domainTag := "general"
	var integrations []string
	for _, e := range domainTable {
		if strings.Contains(lower, e.domain) || strings.Contains(lower, e.domain+"s") {
			if domainTag == "general" {
				domainTag = e.domain
			}
			integrations = append(integrations, e.apis...)
		}
	}

	funcType := "general"
	for _, f := range functionalityTable {
		if containsAny(lower, f.keywords) {
			funcType = f.kind
			break
		}
	}

	intent := domain.Intent{
		Domain:             domainTag,
		Summary:            summarize(req.Prompt),
		Integrations:       dedupe(integrations),
		ToolNames:          suggestToolNames(domainTag, funcType),
		Confidence:         domain.ConfidenceHeuristic,
		RequiresDatabase:   req.IncludeDatabase || containsAny(lower, databaseKeywords),
		RequiresUserData:   containsAny(lower, userDataKeywords),
		RequiresScheduling: containsAny(lower, schedulingKeywords),
		RequiresAuth:       containsAny(lower, authKeywords),
		DataOperations:     detectDataOperations(lower),
		EnvVars:            suggestEnvVars(integrations, req.IncludeDatabase || containsAny(lower, databaseKeywords)),
		Packages:           suggestPackages(lower),
	}

	return intent
}

// summarize cleans the prompt into a short project summary.
func summarize(prompt string) string {
	cleaned := strings.TrimSuffix(strings.TrimSpace(prompt), ".")
	if cleaned == "" {
		return cleaned
	}
	first, size := utf8.DecodeRuneInString(cleaned)
	return string(unicode.ToUpper(first)) + cleaned[size:]
}

func suggestToolNames(domainTag, funcType string) []string {
	names := []string{"validate"}

	verb := map[string]string{
		"tracker":    "track",
		"generator":  "generate",
		"searcher":   "search",
		"notifier":   "notify",
		"analyzer":   "analyze",
		"converter":  "convert",
		"manager":    "manage",
		"automation": "schedule",
	}[funcType]
	if verb == "" {
		verb = "get"
	}

	if domainTag == "general" {
		names = append(names, verb+"_items")
	} else {
		names = append(names, verb+"_"+domainTag)
	}
	return names
}

func detectDataOperations(lower string) []string {
	var ops []string
	for _, e := range dataOperationTable {
		if containsAny(lower, e.keywords) {
			ops = append(ops, e.op)
		}
	}
	if len(ops) == 0 {
		ops = []string{"read", "write"}
	}
	return ops
}

func suggestEnvVars(integrations []string, needsDB bool) []string {
	// AUTH_TOKEN and MY_NUMBER are required by every generated server.
	vars := []string{"AUTH_TOKEN", "MY_NUMBER"}
	for _, api := range integrations {
		vars = append(vars, envVarTable[api]...)
	}
	if needsDB {
		vars = append(vars, "DATABASE_URL")
	}
	return dedupe(vars)
}

func suggestPackages(lower string) []string {
	packages := append([]string{}, basePackages...)
	for _, e := range packageTable {
		if containsAny(lower, e.keywords) {
			packages = append(packages, e.packages...)
		}
	}
	if containsAny(lower, databaseKeywords) {
		packages = append(packages, "sqlalchemy", "psycopg2-binary")
	}
	if containsAny(lower, schedulingKeywords) {
		packages = append(packages, "schedule")
	}
	return dedupe(packages)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// extractJSON pulls the first JSON object out of a response that may carry
// prose or fences around it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
