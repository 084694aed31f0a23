package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Download, transcribe, summarize, and index a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}

		videoID, title, err := a.orchestrator.Ingest(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %q (video_id: %s)\n", title, videoID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
