package main

import (
	"context"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"DOUMonitor/internal/app"
	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/usecase"
)

var (
	historyKind   string
	historyFrom   string
	historyTo     string
	historyOrgID  string
	historyCasoID string
	historySave   bool
)

var historyCmd = &cobra.Command{
	Use:   "history <term>",
	Short: "Search the full gazette archive for a term",
	Long: `Pages through the public archive search for a single term and prints
the accumulated publications. With --save, results are persisted against the
given organization and case.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", string(domain.KindCaseNumber),
		"term kind: numero_processo, nome_parte, oab or custom")
	historyCmd.Flags().StringVar(&historyFrom, "from", "01-01-2020", "start date (DD-MM-YYYY)")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "end date (DD-MM-YYYY), open-ended when omitted")
	historyCmd.Flags().StringVar(&historyOrgID, "org-id", "", "organization to link saved results to")
	historyCmd.Flags().StringVar(&historyCasoID, "caso-id", "", "case to link saved results to")
	historyCmd.Flags().BoolVar(&historySave, "save", false, "persist results (requires --org-id and --caso-id)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer application.Close()

	hits, err := application.RunHistory(ctx, usecase.HistoryParams{
		Term:     args[0],
		Kind:     domain.ParseTermKind(historyKind),
		FromDate: historyFrom,
		ToDate:   historyTo,
		OrgID:    historyOrgID,
		CasoID:   historyCasoID,
		Save:     historySave,
	})
	if err != nil {
		logger.Error("historical search failed", "error", err)
		return err
	}

	if len(hits) == 0 {
		cmd.Println("No publications found for the given term.")
		return nil
	}

	printHits(cmd, hits)
	return nil
}

var tagExpr = regexp.MustCompile(`<[^>]+>`)

func printHits(cmd *cobra.Command, hits []domain.Publication) {
	cmd.Println(strings.Repeat("=", 80))
	for _, hit := range hits {
		actType := hit.ArtType
		if actType == "" {
			actType = "Publicação"
		}
		cmd.Printf("\n[%s] %s\n", hit.PubDate, actType)
		cmd.Printf("  Título: %s\n", hit.Title)
		if hit.ArtCategory != "" {
			cmd.Printf("  Órgão: %s\n", hit.ArtCategory)
		}
		if hit.NumberPage != "" {
			cmd.Printf("  Página: %s\n", hit.NumberPage)
		}
		if hit.URLTitle != "" {
			cmd.Printf("  URL: %s%s\n", cfg.Gazette.PublicationURL, hit.URLTitle)
		}
		if hit.Content != "" {
			excerpt := tagExpr.ReplaceAllString(hit.Content, "")
			if runes := []rune(excerpt); len(runes) > 200 {
				excerpt = string(runes[:200])
			}
			cmd.Printf("  Resumo: %s...\n", excerpt)
		}
	}
	cmd.Println()
	cmd.Println(strings.Repeat("=", 80))
}
