package session

import "strings"

// Intent is a locally predicted classification of a user message, used to
// pick progress lines before the backend answers.
type Intent struct {
	Name       string
	Agent      string
	Confidence float64
}

type intentRule struct {
	intent   Intent
	keywords []string
}

// Ordered: the first rule with a matching keyword wins.
var intentRules = []intentRule{
	{Intent{Name: "deploy_application", Agent: "phoenix", Confidence: 0.9}, []string{"deploy", "release", "ship"}},
	{Intent{Name: "provision_infrastructure", Agent: "atlas", Confidence: 0.85}, []string{"provision", "server", "droplet", "instance", "infrastructure"}},
	{Intent{Name: "manage_dns", Agent: "neptune", Confidence: 0.85}, []string{"dns", "domain", "record"}},
	{Intent{Name: "analyze_repository", Agent: "mercury", Confidence: 0.8}, []string{"analyze", "analyse", "repo", "repository"}},
	{Intent{Name: "manage_credentials", Agent: "hermes", Confidence: 0.8}, []string{"ssh", "key", "credential", "secret"}},
	{Intent{Name: "check_status", Agent: "watson", Confidence: 0.7}, []string{"status", "health", "running"}},
}

var fallbackIntent = Intent{Name: "general_query", Agent: "watson", Confidence: 0.5}

// PredictIntent classifies text by keyword.
func PredictIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range intentRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
	}
	return fallbackIntent
}
