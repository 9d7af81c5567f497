package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/controlVector/controlvector-frontend/client"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Manage cloud credentials and SSH keys used for deployments",
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials and onboarding status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		if _, err := e.requireToken(); err != nil {
			return err
		}

		creds, err := e.api.ListCredentials(cmd.Context())
		if err != nil {
			return fmt.Errorf("list credentials: %w", err)
		}
		sort.Slice(creds, func(i, j int) bool {
			if creds[i].Provider != creds[j].Provider {
				return creds[i].Provider < creds[j].Provider
			}
			return creds[i].Key < creds[j].Key
		})

		if len(creds) == 0 {
			fmt.Println("No credentials stored.")
		}
		now := time.Now()
		for _, c := range creds {
			added := ""
			if t, ok := client.ParseTimestamp(c.CreatedAt); ok {
				added = "  added " + humanize.RelTime(t, now, "ago", "from now")
			}
			provider := c.Provider
			if provider == "" {
				provider = "-"
			}
			fmt.Printf("  %-14s %-28s %-8s%s\n", provider, c.Key, c.Type, added)
		}

		status := client.OnboardingStatus(creds)
		fmt.Println()
		fmt.Printf("Configured providers: %s\n", joinOrNone(status.Configured))
		fmt.Printf("SSH key: %s\n", yesNo(status.HasSSHKey))
		if status.Complete() {
			fmt.Println("Onboarding complete.")
		} else {
			fmt.Println("Onboarding incomplete: store one cloud provider and an SSH key.")
		}
		return nil
	},
}

var credentialsSetCmd = &cobra.Command{
	Use:       "set <provider>",
	Short:     "Store the credentials for a provider",
	Long:      "Store the credentials for a provider. Known providers: " + strings.Join(client.ProviderIDs(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: client.ProviderIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, ok := client.Providers[args[0]]
		if !ok {
			return fmt.Errorf("unknown provider %q (known: %s)", args[0], strings.Join(client.ProviderIDs(), ", "))
		}
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		if _, err := e.requireToken(); err != nil {
			return err
		}

		p := newPrompter()
		fmt.Printf("Storing %s credentials.\n", provider.Name)
		for _, field := range provider.Fields {
			value, err := p.secret(field)
			if err != nil {
				return err
			}
			err = e.api.StoreCredential(cmd.Context(), client.CredentialRequest{
				Key:      field,
				Value:    value,
				Type:     client.CredentialTypeAPIKey,
				Provider: provider.ID,
			})
			if err != nil {
				return fmt.Errorf("store %s: %w", field, err)
			}
			e.log.Logger.Info("credential_stored", "provider", provider.ID, "key", field)
		}
		fmt.Printf("%s credentials stored.\n", provider.Name)
		return nil
	},
}

var (
	sshKeyName    string
	sshPublicKey  string
	sshPrivateKey string
)

var credentialsSSHKeyCmd = &cobra.Command{
	Use:   "ssh-key",
	Short: "Upload an SSH keypair used to access provisioned servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sshPrivateKey == "" {
			return fmt.Errorf("--private is required")
		}
		public := sshPublicKey
		if public == "" {
			public = sshPrivateKey + ".pub"
		}
		priv, err := os.ReadFile(sshPrivateKey)
		if err != nil {
			return fmt.Errorf("read private key: %w", err)
		}
		pub, err := os.ReadFile(public)
		if err != nil {
			return fmt.Errorf("read public key: %w", err)
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		if _, err := e.requireToken(); err != nil {
			return err
		}
		err = e.api.StoreSSHKey(cmd.Context(), client.SSHKeyRequest{
			KeyName:    sshKeyName,
			PublicKey:  strings.TrimSpace(string(pub)),
			PrivateKey: string(priv),
		})
		if err != nil {
			return fmt.Errorf("store ssh key: %w", err)
		}
		e.log.Logger.Info("ssh_key_stored", "key_name", sshKeyName)
		fmt.Printf("SSH key %q stored.\n", sshKeyName)
		return nil
	},
}

func init() {
	credentialsSSHKeyCmd.Flags().StringVar(&sshKeyName, "name", "default", "name for the keypair")
	credentialsSSHKeyCmd.Flags().StringVar(&sshPublicKey, "public", "", "public key file (default <private>.pub)")
	credentialsSSHKeyCmd.Flags().StringVar(&sshPrivateKey, "private", "", "private key file")

	credentialsCmd.AddCommand(credentialsListCmd, credentialsSetCmd, credentialsSSHKeyCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
