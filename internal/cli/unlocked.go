package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"memory-keeper/internal/lifecycle"
	"memory-keeper/internal/store"
)

var errBothResponseFlags = errors.New("--with-responses and --without-responses are mutually exclusive")

func init() {
	cmd := &cobra.Command{
		Use:   "unlocked",
		Short: "List unlocked memories",
		Long:  "List unlocked memories, most recently unlocked first. Eligible locked memories are promoted before the view is built.",
		Run:   runUnlocked,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category name or id")
	cmd.Flags().String("after", "", "Only memories with unlock date on or after this date")
	cmd.Flags().Bool("with-responses", false, "Only memories that have at least one response")
	cmd.Flags().Bool("without-responses", false, "Only memories with no responses yet")

	RootCmd.AddCommand(cmd)
}

func runUnlocked(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	afterStr, _ := cmd.Flags().GetString("after")
	withResponses, _ := cmd.Flags().GetBool("with-responses")
	withoutResponses, _ := cmd.Flags().GetBool("without-responses")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	// Promote anything whose unlock date has passed so the view is
	// current.
	engine := lifecycle.NewEngine(s, newLogger())
	if _, err := engine.PromoteEligible(cmd.Context()); err != nil {
		exitErr("unlock scan", err)
	}

	categoryID, err := resolveCategory(cmd.Context(), s, category)
	if err != nil {
		exitErr("unlocked", err)
	}

	unlocked := true
	p := store.FilterParams{
		Unlocked:   &unlocked,
		CategoryID: categoryID,
	}
	if afterStr != "" {
		after, err := parseDate(afterStr)
		if err != nil {
			exitErr("unlocked", err)
		}
		after = after.UTC().Truncate(time.Second)
		p.UnlockedAfter = &after
	}
	if withResponses && withoutResponses {
		exitErr("unlocked", errBothResponseFlags)
	}
	if withResponses || withoutResponses {
		p.HasResponses = &withResponses
	}

	memories, err := s.Filter(cmd.Context(), p)
	if err != nil {
		exitErr("unlocked", err)
	}

	printMemories(memories)
}
