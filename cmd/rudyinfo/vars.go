package rudyinfo

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samscott89/rudy-sub002/rudy"
)

var varsCmd = &cobra.Command{
	Use:   "vars <binary> <addr>",
	Short: "List parameters, locals, and globals in scope at a runtime address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddr(args[1])
		if err != nil {
			return err
		}
		di, err := openBinary(args[0])
		if err != nil {
			return err
		}
		resolver := NewStaticResolver(di.Files()...)
		params, locals, globals := di.GetAllVariablesAtPC(addr, resolver)
		printVarGroup(cmd, "params", params)
		printVarGroup(cmd, "locals", locals)
		printVarGroup(cmd, "globals", globals)
		printDiagnostics(cmd, di)
		return nil
	},
}

func printVarGroup(cmd *cobra.Command, label string, vars []*rudy.VariableInfo) {
	if len(vars) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", label)
	for _, v := range vars {
		typeName := "?"
		if v.Type != nil {
			typeName = v.Type.DisplayName()
		}
		if v.HasAddr {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s @ 0x%x\n", v.Name, typeName, v.Address)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s (no address)\n", v.Name, typeName)
		}
	}
}
