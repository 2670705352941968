package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Run:   runCategories,
	}

	RootCmd.AddCommand(cmd)
}

func runCategories(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	categories, err := s.ListCategories(cmd.Context())
	if err != nil {
		exitErr("categories", err)
	}

	if formatFlag == "text" {
		for _, c := range categories {
			fmt.Printf("%s  %s - %s\n", c.ID, c.Name, c.Description)
		}
		return
	}

	b, _ := json.MarshalIndent(categories, "", "  ")
	fmt.Println(string(b))
}
