package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/controlVector/controlvector-frontend/client"
	"github.com/controlVector/controlvector-frontend/config"
	"github.com/controlVector/controlvector-frontend/logging"
	"github.com/controlVector/controlvector-frontend/store"
	"github.com/controlVector/controlvector-frontend/style"
)

var version = "dev"

var (
	profileFlag string
	devFlag     bool
	debugFlag   bool
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "cv",
	Short: "ControlVector deployment assistant",
	Long: `cv opens a chat with the ControlVector agents. Describe what you want
to deploy, review the proposed execution plan and run it step by step.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

// Execute runs the root command. It is called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "named profile for state isolation (~/.controlvector/profiles/<name>)")
	rootCmd.PersistentFlags().BoolVar(&devFlag, "dev", false, "dev mode (profile \"dev\" with debug logging)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write debug logs to <profile>/logs/cv.log")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable ANSI colors")
}

// profileDir resolves the state directory for the selected profile.
func profileDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	base := filepath.Join(home, ".controlvector")
	profile := profileFlag
	if devFlag && profile == "" {
		profile = "dev"
	}
	if profile == "" {
		return base, nil
	}
	return filepath.Join(base, "profiles", profile), nil
}

// env is the shared state every subcommand opens.
type env struct {
	dir   string
	cfg   config.Config
	log   logging.FileLogger
	store *store.Store
	api   *client.Client
}

func openEnv() (*env, error) {
	dir, err := profileDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if !style.SetTheme(cfg.Theme) {
		style.SetTheme("dark")
	}
	log, err := logging.NewFileLogger(dir, debugFlag || devFlag, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
	st, err := store.Open(filepath.Join(dir, "store"))
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	e := &env{dir: dir, cfg: cfg, log: log, store: st, api: client.New(cfg.APIURL)}
	if tokens, err := st.Tokens(); err == nil && tokens.Access != "" {
		e.api.SetToken(tokens.Access)
	}
	log.Logger.Debug("env_opened", "profile_dir", dir, "api_url", cfg.APIURL)
	return e, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Logger.Warn("store_close_failed", "error", err)
	}
	_ = e.log.Close()
}

// requireToken returns the stored access token or an error telling the
// user to log in.
func (e *env) requireToken() (string, error) {
	tokens, err := e.store.Tokens()
	if err != nil {
		return "", err
	}
	if tokens.Access == "" {
		return "", fmt.Errorf("not logged in, run `cv login`")
	}
	return tokens.Access, nil
}
