package rudyinfo

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var methodsCmd = &cobra.Command{
	Use:   "methods <binary>",
	Short: "List every type's discovered methods, including trait-impl and synthetic ones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := openBinary(args[0])
		if err != nil {
			return err
		}
		byType := di.DiscoverAllMethods()
		typeNames := make([]string, 0, len(byType))
		for name := range byType {
			typeNames = append(typeNames, name)
		}
		sort.Strings(typeNames)
		for _, name := range typeNames {
			nameColor.Fprintln(cmd.OutOrStdout(), name)
			for _, m := range byType[name] {
				kind := ""
				if m.IsSynthetic {
					kind = " (synthetic)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n", m.Signature, kind)
			}
		}
		printDiagnostics(cmd, di)
		return nil
	},
}
