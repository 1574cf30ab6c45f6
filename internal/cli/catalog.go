package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-player/internal/catalog"
	"quiz-player/internal/config"
)

// NewCatalogCmd prints the selectable quizzes as the player would see them.
func NewCatalogCmd(configPath *string) *cobra.Command {
	var (
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the selectable quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd.Context(), *configPath, category, asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&category, "category", catalog.AllCategories, "only list this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func runCatalog(ctx context.Context, configPath, category string, asJSON bool, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := setupLogger(cfg)
	defer log.Sync() //nolint:errcheck

	service, d, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	cat, err := service.Catalog(ctx, category)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	}
	for _, q := range cat.Quizzes {
		fmt.Fprintf(out, "%-24s %-16s %-10s %s\n", q.ID, q.Category, q.Difficulty, q.Title)
	}
	return nil
}

// NewIndexCmd regenerates index.json for a quiz directory.
func NewIndexCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Generate index.json for a quiz directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := setupLogger(cfg)
			defer log.Sync() //nolint:errcheck
			if dir == "" {
				dir = cfg.Quiz.Dir
			}
			index, err := catalog.GenerateIndex(dir, time.Now(), log)
			if err != nil {
				return err
			}
			log.Info("index generated", zap.String("dir", dir), zap.Int("quizzes", index.Count), zap.Strings("categories", index.Categories))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "quiz directory (defaults to quiz.dir)")
	return cmd
}
