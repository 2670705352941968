package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"memory-keeper/internal/lifecycle"
)

func init() {
	cmd := &cobra.Command{
		Use:   "unlock [id]",
		Short: "Unlock a memory early, or scan for due memories",
		Long:  "With an id, unlock that memory immediately regardless of its unlock date. With --scan, promote every locked memory whose unlock date has passed.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runUnlock,
	}

	cmd.Flags().Bool("scan", false, "Promote all memories whose unlock date has passed")

	RootCmd.AddCommand(cmd)
}

func runUnlock(cmd *cobra.Command, args []string) {
	scan, _ := cmd.Flags().GetBool("scan")

	if !scan && len(args) == 0 {
		exitErr("unlock", fmt.Errorf("an id or --scan is required"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	engine := lifecycle.NewEngine(s, newLogger())

	if scan {
		promoted, err := engine.PromoteEligible(cmd.Context())
		if err != nil {
			exitErr("unlock scan", err)
		}
		fmt.Printf(`{"ok":true,"promoted":%d}`+"\n", promoted)
		return
	}

	ok, err := engine.Unlock(cmd.Context(), args[0])
	if err != nil {
		exitErr("unlock", err)
	}
	if !ok {
		exitErr("unlock", fmt.Errorf("memory not found: %s", args[0]))
	}
	fmt.Printf(`{"ok":true,"id":%q}`+"\n", args[0])
}
