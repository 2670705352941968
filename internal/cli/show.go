package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"memory-keeper/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a memory with its tags and responses",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem, err := s.GetMemory(cmd.Context(), args[0])
	if err != nil {
		exitErr("show", err)
	}

	responses, err := s.ListResponses(cmd.Context(), mem.ID)
	if err != nil {
		exitErr("show", err)
	}

	out := struct {
		*model.Memory
		Responses []model.Response `json:"responses,omitempty"`
	}{mem, responses}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
