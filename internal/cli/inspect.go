package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andreyvit/recdb"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var payloads bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print all records and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			flags := recdb.DumpHeaders | recdb.DumpRecords | recdb.DumpBalances | recdb.DumpStats
			if payloads {
				flags |= recdb.DumpPayloads
			}
			out := db.Dump(flags)
			return newFormatter(rootOpts, cmd).Success(out, strings.TrimRight(out, "\n"))
		},
	}

	cmd.Flags().BoolVar(&payloads, "payloads", false, "include compressed payloads as hex")
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print storage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			s := db.Stats()
			text := fmt.Sprintf("backend: %s\nrecords: %d (%d bytes)\nbalances: %d (%d bytes)\ndb_size: %d",
				s.Backend, s.Records.Keys, s.Records.Size, s.Balances.Keys, s.Balances.Size, s.DBSize)
			return newFormatter(rootOpts, cmd).Success(s, text)
		},
	}
	return cmd
}
