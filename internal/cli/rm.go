package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a memory and its tags and responses",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	deleted, err := s.DeleteMemory(cmd.Context(), args[0])
	if err != nil {
		exitErr("rm", err)
	}
	if !deleted {
		exitErr("rm", fmt.Errorf("memory not found: %s", args[0]))
	}

	fmt.Printf(`{"ok":true,"id":%q}`+"\n", args[0])
}
