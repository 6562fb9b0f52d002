package main

import (
	"log"

	"github.com/absmach/voicefed/cli"
	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/spf13/cobra"
)

const (
	defCoordinatorURL  = "http://localhost:8082"
	defTLSVerification = false
)

func main() {
	var (
		coordinatorURL = defCoordinatorURL
		timeout        = sdk.DefaultTimeout
	)

	rootCmd := &cobra.Command{
		Use:   "voicefed-cli",
		Short: "Voicefed CLI",
		Long:  `Voicefed CLI is a command line interface for the federated update coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			s := sdk.NewSDK(sdk.Config{
				CoordinatorURL:  coordinatorURL,
				TLSVerification: defTLSVerification,
				Timeout:         timeout,
			})
			cli.SetSDK(s)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&coordinatorURL, "coordinator-url", "c", coordinatorURL, "Coordinator URL")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", timeout, "Request timeout")

	rootCmd.AddCommand(
		cli.NewCoordinatorCmd(),
		cli.NewFeedbackCmd(),
		cli.NewRoundsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

