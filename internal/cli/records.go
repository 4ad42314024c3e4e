package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andreyvit/recdb"
)

// RecordResult is the JSON payload of store, get and list.
type RecordResult struct {
	ID   uint64 `json:"id"`
	Text string `json:"text,omitempty"`
}

// NewStoreCommand creates the store command.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store <text|->",
		Short: "Compress and store a text record, printing its id",
		Long: `Compress and store a text record, printing the assigned id.

Pass "-" to read the text from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			text := args[0]
			if text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read stdin", err)
				}
				text = string(data)
			}

			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			f := newFormatter(rootOpts, cmd)
			id, err := db.StoreRecord(text)
			if err != nil {
				return reportError(f, err)
			}
			return f.Success(RecordResult{ID: uint64(id)}, strconv.FormatUint(uint64(id), 10))
		},
	}
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print the decompressed text of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			f := newFormatter(rootOpts, cmd)
			text, found, err := db.GetRecord(id)
			if err != nil {
				return reportError(f, err)
			}
			if !found {
				msg := fmt.Sprintf("record %d not found", id)
				if ferr := f.Error(ErrCodeNotFound, msg); ferr != nil {
					return ferr
				}
				return &ExitError{Code: ExitFailure, Message: msg}
			}
			return f.Success(RecordResult{ID: uint64(id), Text: text}, text)
		},
	}
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var rang recdb.RecordRange
	var from, to uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rang.From, rang.To = recdb.ID(from), recdb.ID(to)

			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			var results []RecordResult
			var lines []string
			var failed error
			db.Read(func(tx *recdb.Tx) {
				for rec, err := range tx.ScanRecords(rang) {
					if err != nil {
						failed = err
						return
					}
					text, err := tx.DB().Codec().Decompress(rec.Payload)
					if err != nil {
						failed = fmt.Errorf("record %d: %w", rec.ID, err)
						return
					}
					results = append(results, RecordResult{ID: uint64(rec.ID), Text: text})
					lines = append(lines, fmt.Sprintf("%d\t%s", rec.ID, text))
				}
			})

			f := newFormatter(rootOpts, cmd)
			if failed != nil {
				return reportError(f, failed)
			}
			if results == nil {
				results = []RecordResult{}
			}
			return f.Success(results, strings.Join(lines, "\n"))
		},
	}

	cmd.Flags().Uint64Var(&from, "from", 0, "first id to list (inclusive)")
	cmd.Flags().Uint64Var(&to, "to", 0, "last id to list (inclusive)")
	cmd.Flags().BoolVarP(&rang.Reverse, "reverse", "r", false, "list newest first")
	return cmd
}

func parseID(s string) (recdb.ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid id", err)
	}
	return recdb.ID(v), nil
}

// reportError prints err in the configured format and converts it to an ExitError.
func reportError(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var codecErr *recdb.CodecError
	var bucketErr *recdb.BucketError
	if errors.As(err, &codecErr) {
		code = ErrCodeCodec
	} else if errors.As(err, &bucketErr) {
		code = ErrCodeStorage
	}
	if ferr := f.Error(code, err.Error()); ferr != nil {
		return ferr
	}
	return WrapExitError(ExitFailure, "operation failed", err)
}

// recoverStorageFault turns a storage panic raised by the database into an error.
func recoverStorageFault(err *error) {
	if p := recover(); p != nil {
		if e, ok := p.(error); ok {
			*err = WrapExitError(ExitFailure, "storage failure", e)
		} else {
			*err = &ExitError{Code: ExitFailure, Message: fmt.Sprintf("storage failure: %v", p)}
		}
	}
}
