package client

import "sort"

const (
	// CredentialTypeAPIKey is the type sent for provider credential fields.
	CredentialTypeAPIKey = "api_key"
	// CredentialTypeSSHKey is the type reported for stored SSH keypairs.
	CredentialTypeSSHKey = "ssh_key"
)

// Provider describes the credential keys a provider needs.
type Provider struct {
	ID     string
	Name   string
	Cloud  bool
	Fields []string
}

// Providers is the onboarding schema, keyed by provider id.
var Providers = map[string]Provider{
	"aws": {
		ID: "aws", Name: "Amazon Web Services", Cloud: true,
		Fields: []string{"aws_access_key_id", "aws_secret_access_key"},
	},
	"gcp": {
		ID: "gcp", Name: "Google Cloud", Cloud: true,
		Fields: []string{"gcp_service_account_json"},
	},
	"azure": {
		ID: "azure", Name: "Microsoft Azure", Cloud: true,
		Fields: []string{"azure_client_id", "azure_client_secret", "azure_tenant_id", "azure_subscription_id"},
	},
	"digitalocean": {
		ID: "digitalocean", Name: "DigitalOcean", Cloud: true,
		Fields: []string{"digitalocean_token"},
	},
	"cloudflare": {
		ID: "cloudflare", Name: "Cloudflare",
		Fields: []string{"cloudflare_api_token"},
	},
	"github": {
		ID: "github", Name: "GitHub",
		Fields: []string{"github_token"},
	},
}

// ProviderIDs returns the schema's provider ids in sorted order.
func ProviderIDs() []string {
	ids := make([]string, 0, len(Providers))
	for id := range Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Onboarding summarises which providers are fully configured.
type Onboarding struct {
	Configured []string // provider ids with every field stored
	HasSSHKey  bool
}

// Complete reports whether at least one cloud provider and an SSH key are
// stored.
func (o Onboarding) Complete() bool {
	if !o.HasSSHKey {
		return false
	}
	for _, id := range o.Configured {
		if Providers[id].Cloud {
			return true
		}
	}
	return false
}

// OnboardingStatus evaluates stored credential metadata against Providers.
func OnboardingStatus(creds []CredentialInfo) Onboarding {
	stored := make(map[string]map[string]bool)
	var out Onboarding
	for _, c := range creds {
		if c.Type == CredentialTypeSSHKey {
			out.HasSSHKey = true
			continue
		}
		if stored[c.Provider] == nil {
			stored[c.Provider] = make(map[string]bool)
		}
		stored[c.Provider][c.Key] = true
	}
	for _, id := range ProviderIDs() {
		keys := stored[id]
		if keys == nil {
			continue
		}
		complete := true
		for _, f := range Providers[id].Fields {
			if !keys[f] {
				complete = false
				break
			}
		}
		if complete {
			out.Configured = append(out.Configured, id)
		}
	}
	return out
}
