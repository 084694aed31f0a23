package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var askVideoID string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about an ingested video",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}

		question := args[0]
		for _, arg := range args[1:] {
			question += " " + arg
		}

		fmt.Println(a.engine.Answer(cmd.Context(), question, askVideoID))
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askVideoID, "video", "", "video ID to query (required)")
	_ = askCmd.MarkFlagRequired("video")
	rootCmd.AddCommand(askCmd)
}
