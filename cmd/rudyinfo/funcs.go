package rudyinfo

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var nameColor = color.New(color.FgGreen)

var funcsCmd = &cobra.Command{
	Use:   "funcs <binary> [pattern]",
	Short: "List discovered functions, optionally filtered by a symbol pattern",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := openBinary(args[0])
		if err != nil {
			return err
		}
		matches := di.DiscoverAllFunctions()
		if len(args) == 2 {
			matches = di.DiscoverFunctions(args[1])
		}
		for _, fn := range matches {
			nameColor.Fprint(cmd.OutOrStdout(), fn.Name.String())
			if fn.HasAddr {
				fmt.Fprintf(cmd.OutOrStdout(), " @ ")
				addrColor.Fprintf(cmd.OutOrStdout(), "0x%x", fn.Address)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		printDiagnostics(cmd, di)
		return nil
	},
}
