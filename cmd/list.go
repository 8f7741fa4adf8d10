package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bochkov/jdeserialize/format"
)

var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List top-level content elements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := decodeFile(args[0])
		if err != nil {
			return err
		}
		fmt.Print(format.FormatContentList(ds))
		return nil
	},
}
