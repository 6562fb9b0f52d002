package cli

import (
	"encoding/base64"
	"os"

	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	offset uint64
	limit  uint64
)

var csdk sdk.SDK

func SetSDK(s sdk.SDK) {
	csdk = s
}

func NewCoordinatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coordinator [health|model-info|start-listener]",
		Short: "Coordinator status",
		Long:  `Inspect the federated update coordinator and start its aggregation listener.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "Coordinator health",
			Run: func(cmd *cobra.Command, args []string) {
				if len(args) != 0 {
					logUsageCmd(*cmd, cmd.Use)

					return
				}

				h, err := csdk.Health(cmd.Context())
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				logJSONCmd(*cmd, h)
			},
		},
		&cobra.Command{
			Use:   "model-info",
			Short: "Global model information",
			Run: func(cmd *cobra.Command, args []string) {
				if len(args) != 0 {
					logUsageCmd(*cmd, cmd.Use)

					return
				}

				info, err := csdk.ModelInfo(cmd.Context())
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				logJSONCmd(*cmd, info)
			},
		},
		&cobra.Command{
			Use:   "start-listener",
			Short: "Start the aggregation listener",
			Run: func(cmd *cobra.Command, args []string) {
				if len(args) != 0 {
					logUsageCmd(*cmd, cmd.Use)

					return
				}

				info, err := csdk.StartAggregationListener(cmd.Context())
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				logJSONCmd(*cmd, info)
			},
		},
	)

	return cmd
}

func NewFeedbackCmd() *cobra.Command {
	var (
		original  string
		voiceFile string
	)

	cmd := &cobra.Command{
		Use:   "feedback [submit|list]",
		Short: "Feedback management",
		Long:  `Submit prediction feedback and list the feedback log.`,
	}

	submitCmd := &cobra.Command{
		Use:   "submit <user_id> <confirmed_emotion> <CORRECT|INCORRECT|UNKNOWN> <confidence>",
		Short: "Submit feedback",
		Long: `Submit feedback on a prediction.

Examples:
  voicefed-cli feedback submit user-1 Happy CORRECT 0.92
  voicefed-cli feedback submit user-1 Sad INCORRECT 0.40 --original Happy --voice sample.wav`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 4 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			confidence, err := parseFloat(args[3])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			fb := sdk.Feedback{
				UserID:           args[0],
				ConfirmedEmotion: args[1],
				OriginalEmotion:  original,
				FeedbackType:     args[2],
				Confidence:       confidence,
			}
			if voiceFile != "" {
				data, err := os.ReadFile(voiceFile)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				fb.VoiceData = base64.StdEncoding.EncodeToString(data)
			}

			ack, err := csdk.SubmitFeedback(cmd.Context(), fb)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, ack)
		},
	}
	submitCmd.Flags().StringVarP(&original, "original", "o", "", "Originally predicted emotion")
	submitCmd.Flags().StringVarP(&voiceFile, "voice", "v", "", "Path to the voice sample")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := csdk.ListFeedback(cmd.Context(), offset, limit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}
	addPageFlags(listCmd)

	cmd.AddCommand(submitCmd, listCmd)

	return cmd
}

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [list]",
		Short: "Aggregation rounds",
		Long:  `List aggregation rounds run by the coordinator.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List rounds",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := csdk.ListRounds(cmd.Context(), offset, limit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}
	addPageFlags(listCmd)

	cmd.AddCommand(listCmd)

	return cmd
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64VarP(&offset, "offset", "O", defOffset, "Offset")
	cmd.Flags().Uint64VarP(&limit, "limit", "L", defLimit, "Limit")
}
