package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"knockknock/pkg/domain"
	"knockknock/pkg/store"
)

func newListCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored phrases, most delivered first",
		RunE: func(cmd *cobra.Command, args []string) error {
			phrases, err := loadPhrases(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sortPhrases(phrases)
			if limit > 0 && len(phrases) > limit {
				phrases = phrases[:limit]
			}
			if opts.jsonOutput {
				return writeJSON(cmd, phrases)
			}
			if len(phrases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No phrases stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPhrases(phrases))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many phrases")
	return cmd
}

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeFn()
			phrase, err := findPhrase(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd, phrase)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPhrases([]domain.Phrase{phrase}))
			return nil
		},
	}
}

func openStore(opts *options) (store.PhraseStore, func() error, error) {
	return store.Open(store.Options{
		Driver:        opts.storeDriver,
		Table:         opts.tableName,
		RedisAddr:     opts.redisAddr,
		RedisPassword: opts.redisPassword,
		DatabaseURL:   opts.databaseURL,
	})
}

func loadPhrases(ctx context.Context, opts *options) ([]domain.Phrase, error) {
	s, closeFn, err := openStore(opts)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return s.ScanPhrases(ctx)
}

func findPhrase(ctx context.Context, s store.PhraseStore, id string) (domain.Phrase, error) {
	id = strings.TrimSpace(id)
	phrase, err := s.GetPhrase(ctx, domain.Key{ID: id, Language: domain.LanguageJapanese})
	if errors.Is(err, store.ErrPhraseNotFound) {
		return domain.Phrase{}, fmt.Errorf("phrase %q not found", id)
	}
	return phrase, err
}

// sortPhrases orders by count descending, newest first on ties.
func sortPhrases(phrases []domain.Phrase) {
	sort.SliceStable(phrases, func(i, j int) bool {
		if phrases[i].Count != phrases[j].Count {
			return phrases[i].Count > phrases[j].Count
		}
		return phrases[i].CreatedAt > phrases[j].CreatedAt
	})
}

func renderPhrases(phrases []domain.Phrase) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "일본어", "한국어", "발음", "Count", "Created"})
	for _, p := range phrases {
		tw.AppendRow(table.Row{
			p.ID,
			p.Expression.JP,
			p.Expression.KR,
			p.Pronunciation,
			strconv.FormatInt(p.Count, 10),
			time.Unix(p.CreatedAt, 0).UTC().Format("2006-01-02"),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
