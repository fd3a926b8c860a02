package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"animedb/internal/api"
	"animedb/internal/daemonrun"
	"animedb/internal/ingest"
	"animedb/internal/results"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "upload [file|-]",
		Short: "Parse a release listing and store it in the catalog",
		Long:  "Reads a release listing from the given file, or from stdin when the argument is \"-\" or omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readListing(cmd, args)
			if err != nil {
				return err
			}
			return ctx.withComponents(cmd, func(c *daemonrun.Components) error {
				report, err := c.Uploads.Upload(cmd.Context(), user, text)
				if err != nil && !errors.Is(err, ingest.ErrNothingParsed) {
					return err
				}
				if ctx.wantJSON() {
					if jsonErr := writeJSON(cmd, api.FromReport(report)); jsonErr != nil {
						return jsonErr
					}
					return err
				}
				if err != nil {
					if report.Diagnostic != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "Structured extraction: %s\n", report.Diagnostic)
					}
					for _, msg := range report.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), " • %s\n", msg)
					}
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), report.Text())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Uploader ID (must be on the uploader list)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func readListing(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read listing: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("listing is empty")
	}
	return string(data), nil
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		filter    api.Filter
		user      string
		showTable bool
	)
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the catalog with free text or explicit filters",
		Example: `  animedb search frieren s1 e3 1080p
  animedb search --title "Blue Lock" --quality 720p`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queryText := strings.Join(args, " ")
			return ctx.withComponents(cmd, func(c *daemonrun.Components) error {
				result, err := c.Catalog.Search(cmd.Context(), user, queryText, filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case ctx.wantJSON():
					return writeJSON(cmd, result)
				case (showTable || isTerminal(out)) && result.Count > 0:
					fmt.Fprintln(out, searchTable(result.Results))
				default:
					fmt.Fprint(out, result.Text)
					if !strings.HasSuffix(result.Text, "\n") {
						fmt.Fprintln(out)
					}
				}
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&filter.Title, "title", "", "Title substring")
	flags.StringVar(&filter.Season, "season", "", "Season token (S01)")
	flags.StringVar(&filter.Episode, "episode", "", "Episode token (E01)")
	flags.StringVar(&filter.Quality, "quality", "", "Quality (720p, 1080p, 4K)")
	flags.StringVar(&filter.Audio, "audio", "", "Audio (Single, Dual, Dubbed)")
	flags.StringVarP(&user, "user", "u", "", "User ID recorded with the search")
	flags.BoolVar(&showTable, "table", false, "Render results as a table")
	return cmd
}

func searchTable(releases []api.Release) string {
	rows := make([][]string, 0, len(releases))
	for i, r := range releases {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.SeriesID, r.Title, r.Season, r.Episode, r.Quality, r.Audio, r.URL})
	}
	return renderTable(searchColumns, rows)
}

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "titles",
		Short: "List the titles in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd, func(c *daemonrun.Components) error {
				resp, err := c.Catalog.Titles(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				text := resp.Text
				if all {
					text = results.Browse(resp.Titles, len(resp.Titles))
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				if !strings.HasSuffix(text, "\n") {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every title instead of the first page")
	return cmd
}

func newChatCommand(ctx *commandContext) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Ask the catalog assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd, func(c *daemonrun.Components) error {
				result, err := c.Catalog.Chat(cmd.Context(), user, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, result)
				}
				fmt.Fprintln(cmd.OutOrStdout(), firstNonEmpty(result.UploadHint, result.Reply))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "cli", "Conversation owner")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
