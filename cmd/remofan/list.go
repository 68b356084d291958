package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// preferredNames are tried in order when send gets no --name.
var preferredNames = []string{"首振り左右", "首振り", "swing", "oscillate"}

type applianceRow struct {
	ID       string `json:"id" yaml:"id"`
	Nickname string `json:"nickname" yaml:"nickname"`
	Type     string `json:"type" yaml:"type"`
}

type signalRow struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Appliance applianceRow `json:"appliance" yaml:"appliance"`
}

var sendFlags struct {
	ID    string
	Names []string
}

func init() {
	sendCmd.Flags().StringVar(&sendFlags.ID, "id", "", "signal id to send without any lookup")
	sendCmd.Flags().StringSliceVar(&sendFlags.Names, "name", nil, "signal name to look for, repeatable (default: swing in a few spellings)")
	sendCmd.MarkFlagsMutuallyExclusive("id", "name")
	rootCmd.AddCommand(sendCmd, appliancesCmd, signalsCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a learned signal by id, or by name across every appliance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		ctl, err := newController(nil)
		if err != nil {
			return err
		}

		if sendFlags.ID != "" {
			if err := ctl.SendID(ctx, sendFlags.ID); err != nil {
				return err
			}
			fmt.Printf("Sent signal id=%s\n", sendFlags.ID)
			return nil
		}

		names := sendFlags.Names
		if len(names) == 0 {
			names = preferredNames
		}
		e, err := ctl.SendName(ctx, names...)
		if err != nil {
			return err
		}
		fmt.Printf("Sent signal %s (id=%s) appliance=%s\n", e.Signal.Name, e.Signal.ID, e.Appliance.Nickname)
		return nil
	},
}

var appliancesCmd = &cobra.Command{
	Use:   "appliances",
	Short: "List the appliances registered on the hub",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		cloud, err := newCloud()
		if err != nil {
			return err
		}
		as, err := cloud.Appliances(ctx)
		if err != nil {
			return err
		}
		rows := make([]applianceRow, 0, len(as))
		for _, a := range as {
			rows = append(rows, applianceRow{ID: a.ID, Nickname: a.Nickname, Type: string(a.Type)})
		}
		return printResult(rows)
	},
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "List the learned signals of every appliance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		ctl, err := newController(nil)
		if err != nil {
			return err
		}
		entries, err := ctl.Resolver().AllSignals(ctx)
		if err != nil {
			return err
		}
		rows := make([]signalRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, signalRow{
				ID:        e.Signal.ID,
				Name:      e.Signal.Name,
				Appliance: applianceRow{ID: e.Appliance.ID, Nickname: e.Appliance.Nickname, Type: string(e.Appliance.Type)},
			})
		}
		return printResult(rows)
	},
}
