package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored tokens and conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.ClearSession(); err != nil {
			return err
		}
		e.log.Logger.Info("logged_out")
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
