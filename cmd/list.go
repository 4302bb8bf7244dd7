// =============================================================================
// MC Generator - List and Count Commands
// =============================================================================
//
// COMMAND USAGE:
//   mcgen list  [--base file]                       Clients and periods
//   mcgen count [--base file] --client X --period Y Matching records
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the clients and periods of the base",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOrchestrator(basePath, "", false)
		if err != nil {
			return err
		}

		clientList := o.AvailableClients()
		fmt.Printf("Clients (%d):\n", len(clientList))
		for _, c := range clientList {
			fmt.Printf("  %s\n", c)
		}

		periodList := o.AvailablePeriods()
		fmt.Printf("Periods (%d):\n", len(periodList))
		for _, p := range periodList {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the records matching a client and period selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOrchestrator(basePath, "", false)
		if err != nil {
			return err
		}
		fmt.Println(o.CountFiltered(clients, periods))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, countCmd)

	listCmd.Flags().StringVar(&basePath, "base", "", "Billing balance file (defaults to the consolidated cache)")

	countCmd.Flags().StringVar(&basePath, "base", "", "Billing balance file (defaults to the consolidated cache)")
	addFilterFlags(countCmd)
}
