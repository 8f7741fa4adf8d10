package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bochkov/jdeserialize/blockdata"
)

var blockdataOutDir string

var blockdataCmd = &cobra.Command{
	Use:   "blockdata <file>",
	Short: "Extract top-level block-data payloads to files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := decodeFile(args[0])
		if err != nil {
			return err
		}

		manifest, err := blockdata.ExtractBlockData(ds, blockdataOutDir)
		if err != nil {
			return err
		}
		logger.Printf("wrote %d block(s) to %s", len(manifest), blockdataOutDir)
		return nil
	},
}

func init() {
	blockdataCmd.Flags().StringVar(&blockdataOutDir, "out", ".", "directory to write extracted blocks and the manifest into")
}
