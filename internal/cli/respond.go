package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"memory-keeper/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "respond <id> [content]",
		Short: "Record a response to an unlocked memory",
		Long:  "Record a reflection on a memory. Content can be a positional arg or piped via stdin.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRespond,
	}

	cmd.Flags().StringP("mood", "m", "", "Mood while responding")

	RootCmd.AddCommand(cmd)
}

func runRespond(cmd *cobra.Command, args []string) {
	mood, _ := cmd.Flags().GetString("mood")

	var content string
	if len(args) > 1 {
		content = strings.Join(args[1:], " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = strings.TrimSpace(string(b))
		}
	}

	if strings.TrimSpace(content) == "" {
		exitErr("respond", fmt.Errorf("response content is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	resp, err := s.AddResponse(cmd.Context(), store.AddResponseParams{
		MemoryID: args[0],
		Content:  content,
		Mood:     mood,
	})
	if err != nil {
		exitErr("respond", err)
	}

	b, _ := json.Marshal(resp)
	fmt.Println(string(b))
}
