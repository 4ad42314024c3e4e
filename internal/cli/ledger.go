package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andreyvit/recdb"
)

// BalanceResult is the JSON payload of charge, seed and balance.
type BalanceResult struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
	Found   bool   `json:"found"`
}

func (r BalanceResult) String() string {
	if !r.Found {
		return fmt.Sprintf("%s: no balance entry", r.Account)
	}
	return fmt.Sprintf("%s: %d", r.Account, r.Balance)
}

// NewChargeCommand creates the charge command.
func NewChargeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charge <account> <amount>",
		Short: "Subtract amount from an existing account balance",
		Long: `Subtract amount from an existing account balance.

Accounts without a balance entry are left alone; the balance may go negative.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			account := recdb.AccountID(args[0])
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			db.ChargeForData(account, amount)
			return printBalance(newFormatter(rootOpts, cmd), db, account)
		},
	}
	return cmd
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <account> <balance>",
		Short: "Create or overwrite an account balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			account := recdb.AccountID(args[0])
			balance, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			db.SetBalance(account, balance)
			return printBalance(newFormatter(rootOpts, cmd), db, account)
		},
	}
	return cmd
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Print an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			db, err := openDB(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer db.Close()
			defer recoverStorageFault(&err)

			return printBalance(newFormatter(rootOpts, cmd), db, recdb.AccountID(args[0]))
		},
	}
	return cmd
}

func printBalance(f *OutputFormatter, db *recdb.DB, account recdb.AccountID) error {
	balance, found := db.Balance(account)
	r := BalanceResult{Account: string(account), Balance: balance, Found: found}
	return f.Success(r, r.String())
}

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid amount", err)
	}
	return v, nil
}
