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
		Use:   "create [content]",
		Short: "Create a memory",
		Long:  "Create a memory that stays locked until its unlock date. Content can be a positional arg or piped via stdin.",
		Run:   runCreate,
	}

	cmd.Flags().StringP("title", "t", "", "Memory title (required)")
	cmd.Flags().StringP("unlock", "u", "", "Unlock date, YYYY-MM-DD or RFC 3339 (required)")
	cmd.Flags().StringP("category", "c", "", "Category name or id")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().StringP("mood", "m", "", "Current mood (Happy, Reflective, Excited, Curious, Hopeful, Anxious, Proud)")
	cmd.Flags().IntP("importance", "i", 0, "Importance 1-5 (default 3)")
	cmd.Flags().String("media", "", "Path to an associated media file")
	cmd.Flags().String("unlock-type", "date", "Unlock type: date, interval, random")

	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("unlock")

	RootCmd.AddCommand(cmd)
}

func runCreate(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	unlockStr, _ := cmd.Flags().GetString("unlock")
	category, _ := cmd.Flags().GetString("category")
	tagsStr, _ := cmd.Flags().GetString("tags")
	mood, _ := cmd.Flags().GetString("mood")
	importance, _ := cmd.Flags().GetInt("importance")
	media, _ := cmd.Flags().GetString("media")
	unlockType, _ := cmd.Flags().GetString("unlock-type")

	// Content: positional arg first, then check stdin. May be empty.
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
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

	unlockDate, err := parseDate(unlockStr)
	if err != nil {
		exitErr("create", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	categoryID, err := resolveCategory(cmd.Context(), s, category)
	if err != nil {
		exitErr("create", err)
	}

	mem, err := s.CreateMemory(cmd.Context(), store.CreateMemoryParams{
		Title:      title,
		Content:    content,
		MediaPath:  media,
		UnlockDate: unlockDate,
		UnlockType: unlockType,
		CategoryID: categoryID,
		Mood:       mood,
		Tags:       splitTags(tagsStr),
		Importance: importance,
	})
	if err != nil {
		exitErr("create", err)
	}

	b, _ := json.Marshal(mem)
	fmt.Println(string(b))
}
