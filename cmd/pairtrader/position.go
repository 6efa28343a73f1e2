package main

import (
	"fmt"
	"strings"

	"PairTrader/internal/model"
	"PairTrader/internal/recorder"

	"github.com/spf13/cobra"
)

func positionCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Inspect or repair the persisted position",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the persisted position",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(*cfgPath)
				if err != nil {
					return err
				}
				store, closeStore, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer closeStore()
				st, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", cfg.Strategy.Symbol, st.Side, store.Name())
				return nil
			},
		},
		&cobra.Command{
			Use:       "set flat|long",
			Short:     "Overwrite the persisted position, e.g. after a manual trade",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"flat", "long"},
			RunE: func(cmd *cobra.Command, args []string) error {
				var side model.PositionSide
				switch strings.ToLower(args[0]) {
				case "flat":
					side = model.Flat
				case "long":
					side = model.Long
				default:
					return fmt.Errorf("position must be flat or long, got %q", args[0])
				}
				cfg, err := loadConfig(*cfgPath)
				if err != nil {
					return err
				}
				store, closeStore, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer closeStore()
				if err := store.Save(cmd.Context(), model.PositionState{Side: side}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s position set to %s (%s)\n", cfg.Strategy.Symbol, side, store.Name())
				return nil
			},
		},
	)
	return cmd
}

func tradesCmd(cfgPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List the most recent recorded trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Database.SQLitePath == "" {
				return fmt.Errorf("database.sqlite_path is not configured")
			}
			rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
			if err != nil {
				return err
			}
			defer rec.Close()
			trades, err := rec.RecentTrades(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(trades) == 0 {
				fmt.Fprintln(out, "no trades recorded")
				return nil
			}
			for _, t := range trades {
				mode := ""
				if t.Paper {
					mode = " paper"
				}
				fmt.Fprintf(out, "%s %-4s %s %s @ %s order=%s%s  %s\n",
					t.FilledAt.Format("2006-01-02 15:04:05"), t.Intent.Side, t.Quantity, t.Intent.Symbol, t.Price, t.OrderID, mode, t.Reason)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of trades to show")
	return cmd
}
