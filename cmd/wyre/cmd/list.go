package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wyrelab/wyre/examples"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available example designs",
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range examples.All() {
			fmt.Printf("%-16s %s\n", d.Name, d.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
