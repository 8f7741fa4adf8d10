// Package cmd implements the jdeserialize CLI: a cobra front-end over the
// jdeserialize core that exposes list/classes/instances/blockdata
// subcommands.
package cmd

import (
	"bufio"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bochkov/jdeserialize/jdeserialize"
)

// logger is the CLI's only logging channel; the core library stays silent.
var logger = log.New(os.Stderr, "", 0)

var noConnect bool

var rootCmd = &cobra.Command{
	Use:   "jdeserialize",
	Short: "Decode Java Object Serialization Stream Protocol data",
	Long: `jdeserialize reads a Java object serialization stream and exposes its
decoded content graph: strings, class descriptors, arrays, enums,
instances, block data, and exception states.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noConnect, "no-connect", false, "skip inner/static member class reconnection")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(blockdataCmd)
}

// Execute runs the root command, exiting the process with a non-zero status
// on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Println(err)
		os.Exit(1)
	}
}

// openInput opens path for reading, treating "-" as stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(bufio.NewReader(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %q", path)
	}
	return f, nil
}

// decodeFile opens path and runs the core decoder over it, honoring
// --no-connect.
func decodeFile(path string) (*jdeserialize.DecodedStream, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	opts := jdeserialize.DefaultOptions()
	opts.ConnectMemberClasses = !noConnect

	ds, err := jdeserialize.Decode(r, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding %q", path)
	}
	return ds, nil
}
