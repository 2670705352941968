// Package cli implements the memory-keeper CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"memory-keeper/internal/config"
	"memory-keeper/internal/logger"
	"memory-keeper/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memory-keeper",
	Short: "A digital time capsule",
	Long:  "Store memories that unlock at future dates, then respond to them when they do. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MEMORY_KEEPER_DB or from config)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.memory-keeper/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("MEMORY_KEEPER_DB"); env != "" {
		return env
	}
	return loadConfig().DBPath
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func newLogger() zerolog.Logger {
	if verbose {
		return logger.NewVerbose("memory-keeper")
	}
	return logger.New("memory-keeper")
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// resolveCategory accepts a category name or id and returns the id.
func resolveCategory(ctx context.Context, s *store.SQLiteStore, nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", nil
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range categories {
		if c.ID == nameOrID || strings.EqualFold(c.Name, nameOrID) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", nameOrID)
}

// parseDate accepts RFC 3339 or a plain YYYY-MM-DD date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}

func splitTags(tagsStr string) []string {
	var tags []string
	for _, t := range strings.Split(tagsStr, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
