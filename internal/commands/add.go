package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/folio-dev/folio/internal/audit"
	"github.com/folio-dev/folio/internal/model"
)

// addFlags holds the shared flags of the ledger-append commands.
type addFlags struct {
	account    string
	instrument string
	quantity   string
	price      string
	currency   string
	fee        string
	when       string
}

func newBuyCommand(workspaceDir *string) *cobra.Command {
	return newAppendCommand(workspaceDir, model.SideBuy, "buy", "Record a purchase of an instrument")
}

func newSellCommand(workspaceDir *string) *cobra.Command {
	return newAppendCommand(workspaceDir, model.SideSell, "sell", "Record a sale of an instrument")
}

func newDividendCommand(workspaceDir *string) *cobra.Command {
	return newAppendCommand(workspaceDir, model.SideDividend, "dividend", "Record a dividend payment")
}

func newFeeCommand(workspaceDir *string) *cobra.Command {
	return newAppendCommand(workspaceDir, model.SideFee, "fee", "Record a standalone fee")
}

func newAppendCommand(workspaceDir *string, side model.Side, use, short string) *cobra.Command {
	var flags addFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(*workspaceDir, side, flags)
		},
	}

	cmd.Flags().StringVar(&flags.account, "account", "", "account identifier (required)")
	cmd.Flags().StringVar(&flags.instrument, "instrument", "", "instrument ticker/ISIN (required)")
	cmd.Flags().StringVar(&flags.quantity, "qty", "0", "quantity of units")
	cmd.Flags().StringVar(&flags.price, "price", "0", "price per unit")
	cmd.Flags().StringVar(&flags.currency, "currency", "", "ISO currency code (defaults to base currency)")
	cmd.Flags().StringVar(&flags.fee, "fee", "0", "transaction fee")
	cmd.Flags().StringVar(&flags.when, "time", "", "transaction time, RFC3339 or YYYY-MM-DD (defaults to now)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("instrument")

	return cmd
}

func runAppend(workspaceDir string, side model.Side, flags addFlags) error {
	ws, err := openWorkspace(workspaceDir)
	if err != nil {
		return err
	}

	tx, err := buildTransaction(ws, side, flags)
	if err != nil {
		return err
	}

	st, err := ws.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	txID, err := st.Append(tx)
	if err != nil {
		return err
	}

	if err := audit.Append(ws.root, []audit.Entry{{
		Timestamp: time.Now(),
		Action:    "append",
		Details:   fmt.Sprintf("%s %s %s @ %s %s", side, flags.quantity, flags.instrument, flags.price, tx.Currency),
		TxID:      txID,
	}}); err != nil {
		return err
	}

	ws.log.Info().
		Str("tx_id", txID).
		Str("side", string(side)).
		Str("instrument", flags.instrument).
		Str("account", flags.account).
		Msg("transaction committed")

	fmt.Println(txID)
	return nil
}

func buildTransaction(ws *workspace, side model.Side, flags addFlags) (model.Transaction, error) {
	quantity, err := decimal.NewFromString(flags.quantity)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing --qty: %w", err)
	}
	price, err := decimal.NewFromString(flags.price)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing --price: %w", err)
	}
	fee, err := decimal.NewFromString(flags.fee)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing --fee: %w", err)
	}

	currency := flags.currency
	if currency == "" {
		currency = ws.cfg.Ledger.BaseCurrency
	}

	when := time.Now().UTC()
	if flags.when != "" {
		when, err = parseWhen(flags.when)
		if err != nil {
			return model.Transaction{}, err
		}
	}

	return model.Transaction{
		AccountID:    flags.account,
		InstrumentID: flags.instrument,
		Side:         side,
		Quantity:     quantity,
		UnitPrice:    price,
		Currency:     currency,
		Fee:          fee,
		Timestamp:    when,
	}, nil
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --time %q (want RFC3339 or YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}
