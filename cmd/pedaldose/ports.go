package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/pedaldose/serialport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List USB serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serialport.List()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}
