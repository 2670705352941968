package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"memory-keeper/internal/archive"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Import an exported archive",
		Long:  "Import a previously exported archive. Mode merge combines it with the current store; mode replace swaps the current store for it (a backup is kept until the swap is verified).",
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}

	cmd.Flags().String("mode", "merge", "Import mode: merge or replace")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	modeStr, _ := cmd.Flags().GetString("mode")
	mode := archive.ImportMode(modeStr)

	result, err := archive.Import(cmd.Context(), args[0], getDBPath(), mode, newLogger())
	if err != nil {
		exitErr("import", err)
	}

	b, _ := json.Marshal(result)
	fmt.Println(string(b))
}
