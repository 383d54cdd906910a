package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(buildVersion)
			return
		}
		fmt.Printf("wrtpod %s\n", buildVersion)
		fmt.Printf("Commit: %s\n", buildCommit)
		fmt.Printf("Built: %s\n", buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Show only version number")
}
