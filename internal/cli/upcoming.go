package cli

import (
	"github.com/spf13/cobra"

	"memory-keeper/internal/lifecycle"
)

func init() {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List memories that will unlock soon",
		Run:   runUpcoming,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runUpcoming(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	engine := lifecycle.NewEngine(s, newLogger())
	memories, err := engine.Upcoming(cmd.Context(), limit)
	if err != nil {
		exitErr("upcoming", err)
	}

	printMemories(memories)
}
