package session

// Progress strings shown while the backend is working. Cosmetic only.
var (
	operationThinking = map[string][]string{
		"analyzing_repository": {
			"Cloning repository...",
			"Detecting framework and runtime...",
			"Reading build configuration...",
		},
		"provisioning": {
			"Requesting compute capacity...",
			"Configuring network and firewall...",
			"Waiting for the server to boot...",
		},
		"dns": {
			"Looking up your DNS zone...",
			"Creating DNS record...",
			"Waiting for propagation...",
		},
		"deploying": {
			"Building application...",
			"Uploading release...",
			"Restarting services...",
		},
		"generating_key": {
			"Generating keypair...",
			"Storing key in your vault...",
		},
	}

	intentThinking = map[string][]string{
		"deploy_application": {
			"Planning deployment...",
			"Checking your cloud credentials...",
			"Estimating resources...",
		},
		"provision_infrastructure": {
			"Planning infrastructure...",
			"Comparing instance sizes...",
		},
		"manage_dns": {
			"Inspecting DNS configuration...",
		},
		"analyze_repository": {
			"Scanning repository...",
			"Detecting dependencies...",
		},
		"manage_credentials": {
			"Checking stored credentials...",
		},
		"check_status": {
			"Collecting status from services...",
		},
	}

	agentThinking = map[string][]string{
		"watson":  {"Watson is coordinating the agents..."},
		"mercury": {"Mercury is reading your code..."},
		"atlas":   {"Atlas is shaping infrastructure..."},
		"neptune": {"Neptune is charting DNS..."},
		"hermes":  {"Hermes is handling keys..."},
		"phoenix": {"Phoenix is preparing the release..."},
	}

	genericThinking = []string{
		"Thinking...",
		"Working on it...",
		"Almost there...",
	}
)

// ThinkingMessages returns the rotating progress lines for the current
// operation, intent and agent. The operation table wins over the intent
// table; agent lines are appended and short lists are padded with generic
// lines. The result is never empty.
func ThinkingMessages(operation, intent, agent string) []string {
	var out []string
	if lines, ok := operationThinking[operation]; ok {
		out = append(out, lines...)
	} else if lines, ok := intentThinking[intent]; ok {
		out = append(out, lines...)
	}
	out = append(out, agentThinking[agent]...)
	if len(out) <= 3 {
		out = append(out, genericThinking...)
	}
	return out
}
