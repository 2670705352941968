package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"memory-keeper/internal/archive"
	"memory-keeper/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export the store as an archive",
		Long:  "Write a zip archive containing a full copy of the store and an export manifest.",
		Args:  cobra.ExactArgs(1),
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	manifest, err := archive.Export(cmd.Context(), s, args[0], config.AppVersion)
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(manifest, "", "  ")
	fmt.Println(string(b))
}
