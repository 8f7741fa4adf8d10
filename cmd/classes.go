package cmd

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bochkov/jdeserialize/format"
)

var (
	classesFilter   string
	classesNoArrays bool
)

var classesCmd = &cobra.Command{
	Use:   "classes <file>",
	Short: "Print Java-like class declarations for every class descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := decodeFile(args[0])
		if err != nil {
			return err
		}

		opts := format.ClassOptions{ExcludeArrays: classesNoArrays}
		if classesFilter != "" {
			re, err := regexp.Compile(classesFilter)
			if err != nil {
				return errors.Wrapf(err, "invalid --filter regular expression %q", classesFilter)
			}
			opts.Filter = re
		}

		fmt.Print(format.FormatClassDeclarations(ds, opts))
		return nil
	},
}

func init() {
	classesCmd.Flags().StringVar(&classesFilter, "filter", "", "only print class names matching this regular expression")
	classesCmd.Flags().BoolVar(&classesNoArrays, "no-arrays", false, "exclude array class descriptors")
}
