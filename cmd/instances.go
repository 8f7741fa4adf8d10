package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bochkov/jdeserialize/format"
)

var instancesCmd = &cobra.Command{
	Use:   "instances <file>",
	Short: "Dump every instance's field values, recursively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := decodeFile(args[0])
		if err != nil {
			return err
		}
		fmt.Print(format.FormatInstanceDump(ds))
		return nil
	},
}
