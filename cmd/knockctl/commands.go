package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"knockknock/pkg/domain"
)

func newTranslateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <korean text>",
		Short: "Translate Korean text to Japanese with a hangul pronunciation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := opts.client().Translate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "일본어: %s\n", out.JapaneseTranslation)
			fmt.Fprintf(w, "발음:   %s\n", out.KoreanPronunciation)
			if out.JapaneseReading != "" {
				fmt.Fprintf(w, "읽기:   %s\n", out.JapaneseReading)
			}
			return nil
		},
	}
}

func newAddCommand(opts *options) *cobra.Command {
	var jp, kr, pronunciation string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new phrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(jp) == "" || strings.TrimSpace(kr) == "" || strings.TrimSpace(pronunciation) == "" {
				return errors.New("--jp, --kr and --pronunciation are required")
			}
			out, err := opts.client().AddPhrase(cmd.Context(), domain.Expression{JP: jp, KR: kr}, pronunciation)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", out.Message, out.Item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&jp, "jp", "", "Japanese expression")
	cmd.Flags().StringVar(&kr, "kr", "", "Korean gloss")
	cmd.Flags().StringVar(&pronunciation, "pronunciation", "", "Hangul pronunciation of the Japanese")
	return cmd
}

func newSendCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Run the notification job once on the notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().TriggerRun(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd, res)
			}
			w := cmd.OutOrStdout()
			switch {
			case res.Skipped:
				fmt.Fprintf(w, "Skipped: %s\n", res.Reason)
			case res.Delivered:
				fmt.Fprintf(w, "Sent %s (%s) - delivered %d times\n", res.Phrase.Expression.JP, res.Phrase.ID, res.Count)
			default:
				fmt.Fprintln(w, "Nothing sent")
			}
			return nil
		},
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
