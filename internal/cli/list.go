package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"memory-keeper/internal/model"
	"memory-keeper/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse locked memories",
		Run:   runList,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category name or id")
	cmd.Flags().StringP("search", "s", "", "Match title or tags (case-insensitive)")
	cmd.Flags().String("sort", "unlock_date", "Sort field: unlock_date, created_date, importance")
	cmd.Flags().String("order", "ASC", "Sort order: ASC or DESC")
	cmd.Flags().IntP("limit", "l", 50, "Max results")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	search, _ := cmd.Flags().GetString("search")
	sortField, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	categoryID, err := resolveCategory(cmd.Context(), s, category)
	if err != nil {
		exitErr("list", err)
	}

	memories, err := s.BrowseLocked(cmd.Context(), store.BrowseParams{
		CategoryID: categoryID,
		SortField:  sortField,
		SortOrder:  order,
		SearchText: search,
		Limit:      limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	printMemories(memories)
}

func printMemories(memories []model.Memory) {
	if formatFlag == "text" {
		for _, m := range memories {
			line := fmt.Sprintf("%s  %s  %s", m.ID, m.UnlockDate.Format("2006-01-02"), m.Title)
			if len(m.Tags) > 0 {
				line += "  [" + strings.Join(m.Tags, ", ") + "]"
			}
			fmt.Println(line)
		}
		return
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
