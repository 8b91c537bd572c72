package rudyinfo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/samscott89/rudy-sub002/internal/dbcore"
	"github.com/samscott89/rudy-sub002/internal/memview"
	"github.com/samscott89/rudy-sub002/rudy"
)

// saveLastLocation persists the most recently resolved address as a
// "last-stop" bookmark so a later invocation can report where the user left
// off, without requiring a running debugger session to hold that state.
func saveLastLocation(binary string, loc *rudy.ResolvedLocation) {
	s, err := LoadSession()
	if err != nil {
		return
	}
	s.LastBinary = binary
	s.AddBookmark(Bookmark{Name: "last-stop", File: loc.File, Line: loc.Line})
	_ = s.Save()
}

var addrColor = color.New(color.FgYellow)
var locColor = color.New(color.FgCyan)
var errColor = color.New(color.FgRed, color.Bold)

var addr2lineCmd = &cobra.Command{
	Use:   "addr2line <binary> <addr>",
	Short: "Resolve a runtime address to a source file, line, and function",
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
		loc, ok := di.AddressToLocation(addr)
		if !ok {
			errColor.Fprintln(cmd.ErrOrStderr(), "no debug info covers that address")
			return nil
		}
		addrColor.Fprintf(cmd.OutOrStdout(), "0x%x", addr)
		fmt.Fprint(cmd.OutOrStdout(), " -> ")
		locColor.Fprintf(cmd.OutOrStdout(), "%s:%d:%d", loc.File, loc.Line, loc.Column)
		fmt.Fprintf(cmd.OutOrStdout(), " (%s)\n", loc.Function.String())
		saveLastLocation(args[0], loc)
		printDiagnostics(cmd, di)
		return nil
	},
}

func parseAddr(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("rudyinfo: invalid address %q: %w", s, err)
	}
	return v, nil
}

func openBinary(path string) (*rudy.DebugInfo, error) {
	if depth := viperGetInt("derefDepth"); depth > 0 {
		memview.MaxDerefDepth = depth
	}
	db := dbcore.New(nil)
	return rudy.Open(db, path)
}

func printDiagnostics(cmd *cobra.Command, di *rudy.DebugInfo) {
	if !viperGetBool("verbose") {
		return
	}
	for _, d := range di.Diagnostics() {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
}
