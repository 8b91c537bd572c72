package rudyinfo

import (
	"fmt"

	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type <binary> <fully-qualified-name>",
	Short: "Resolve a Rust type's layout by its fully qualified name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := openBinary(args[0])
		if err != nil {
			return err
		}
		layout, ok := di.LookupTypeByName(args[1])
		if !ok {
			errColor.Fprintln(cmd.ErrOrStderr(), "no such type")
			return nil
		}
		nameColor.Fprintln(cmd.OutOrStdout(), layout.DisplayName())
		fmt.Fprintf(cmd.OutOrStdout(), "size: %d bytes\n", layout.Size())
		for _, m := range di.DiscoverMethodsForType(layout) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", m.Signature)
		}
		printDiagnostics(cmd, di)
		return nil
	},
}
