package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	config := &engineConfig{}

	queryCmd := &cobra.Command{
		Use:   "query <node-type> [request-file]",
		Short: "execute one query request document and print the response tree",
		Long: `Executes one JSON request document against the configured datastore and
prints the response tree. The request document is read from the given file,
or from stdin when the file is omitted or "-".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readRequestDoc(args)
			if err != nil {
				return err
			}

			eng, shutdown, err := config.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer shutdown()

			records, err := eng.Execute(cmd.Context(), args[0], doc)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	config.registerFlags(queryCmd.Flags())

	return queryCmd
}

func readRequestDoc(args []string) ([]byte, error) {
	if len(args) < 2 || args[1] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[1])
}
