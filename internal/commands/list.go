package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/folio-dev/folio/internal/market"
	"github.com/folio-dev/folio/internal/model"
	"github.com/folio-dev/folio/internal/position"
	"github.com/folio-dev/folio/internal/store"
)

func newTransactionsCommand(workspaceDir *string) *cobra.Command {
	var account, instrument, side string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List ledger transactions in scan order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransactions(*workspaceDir, store.Filter{
				AccountID:    account,
				InstrumentID: instrument,
				Side:         model.Side(side),
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "filter by account")
	cmd.Flags().StringVar(&instrument, "instrument", "", "filter by instrument")
	cmd.Flags().StringVar(&side, "side", "", "filter by side (buy/sell/dividend/fee)")

	return cmd
}

func runTransactions(workspaceDir string, filter store.Filter) error {
	ws, err := openWorkspace(workspaceDir)
	if err != nil {
		return err
	}

	st, err := ws.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	txs, err := st.Transactions(filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSIDE\tACCOUNT\tINSTRUMENT\tQTY\tPRICE\tFEE\tCURRENCY\tID")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Timestamp.Format(time.RFC3339), tx.Side, tx.AccountID, tx.InstrumentID,
			tx.Quantity, tx.UnitPrice, tx.Fee, tx.Currency, tx.ID)
	}
	return tw.Flush()
}

func newPositionsCommand(workspaceDir *string) *cobra.Command {
	var pricesFile string

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show current holdings derived from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPositions(*workspaceDir, pricesFile)
		},
	}

	cmd.Flags().StringVar(&pricesFile, "prices", "", "YAML file of reference prices (instrument: price)")

	return cmd
}

func runPositions(workspaceDir, pricesFile string) error {
	ws, err := openWorkspace(workspaceDir)
	if err != nil {
		return err
	}

	prices := market.Unavailable()
	if pricesFile != "" {
		prices, err = market.LoadFile(pricesFile)
		if err != nil {
			return err
		}
	}

	st, err := ws.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := position.NewEngine(st, prices)
	positions, err := engine.Positions()
	if err != nil {
		return err
	}

	keys := make([]model.Key, 0, len(positions))
	for k := range positions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AccountID != keys[j].AccountID {
			return keys[i].AccountID < keys[j].AccountID
		}
		return keys[i].InstrumentID < keys[j].InstrumentID
	})

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tINSTRUMENT\tQTY\tAVG COST\tREALIZED\tDIVIDENDS\tFEES\tUNREALIZED")
	for _, k := range keys {
		p := positions[k]
		unrealized := "n/a"
		if p.HasMarketData {
			unrealized = p.UnrealizedGain.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.AccountID, p.InstrumentID, p.Quantity, p.AvgCost,
			p.RealizedGain, p.Dividends, p.Fees, unrealized)
	}
	return tw.Flush()
}
