package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/dreamlog/internal/api"
	"github.com/pbaille/dreamlog/internal/classifier"
	"github.com/pbaille/dreamlog/internal/config"
	"github.com/pbaille/dreamlog/internal/emotion"
	"github.com/pbaille/dreamlog/internal/ingest"
	"github.com/pbaille/dreamlog/internal/journal"
	"github.com/pbaille/dreamlog/internal/logging"
	"github.com/pbaille/dreamlog/internal/store"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags shared by every command
type globals struct {
	configPath string
	dataPath   string
	backend    string
}

// app is everything a command needs, built from config and flags
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	repo    store.Repository
	journal *journal.Journal
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("Close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:          "dream",
		Short:        "Dream journal with mood and topic analysis",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&g.dataPath, "data", "", "store path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&g.backend, "backend", "", "store backend: json or sqlite (overrides config)")

	rootCmd.AddCommand(addCmd(g))
	rootCmd.AddCommand(listCmd(g))
	rootCmd.AddCommand(showCmd(g))
	rootCmd.AddCommand(editCmd(g))
	rootCmd.AddCommand(deleteCmd(g))
	rootCmd.AddCommand(searchCmd(g))
	rootCmd.AddCommand(trendCmd(g))
	rootCmd.AddCommand(clusterCmd(g))
	rootCmd.AddCommand(similarCmd(g))
	rootCmd.AddCommand(clearCmd(g))
	rootCmd.AddCommand(serveCmd(g))

	return rootCmd
}

func openApp(g *globals) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	if g.backend != "" && g.backend != cfg.Store.Backend {
		// A path defaulted for the old backend follows the new one
		if g.dataPath == "" && cfg.Store.Path == cfg.DefaultStorePath(cfg.Store.Backend) {
			cfg.Store.Path = cfg.DefaultStorePath(g.backend)
		}
		cfg.Store.Backend = g.backend
	}
	if g.dataPath != "" {
		cfg.Store.Path = g.dataPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := store.Open(cfg.Store.Backend, cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}

	var scorerOpts []emotion.Option
	if cfg.Analysis.NormalizeReported {
		scorerOpts = append(scorerOpts, emotion.WithReportedNormalization())
	}
	j := journal.New(repo,
		journal.WithLogger(logger),
		journal.WithAnalyzer(journal.NewAnalyzer(emotion.NewLexiconScorer(scorerOpts...))),
		journal.WithAlertMargin(cfg.Analysis.AlertMargin),
	)

	logger.Debug("Opened journal",
		zap.String("backend", cfg.Store.Backend),
		zap.String("path", cfg.Store.Path),
	)
	return &app{cfg: cfg, logger: logger, repo: repo, journal: j}, nil
}

// dreamText picks the text from --file, --url or the arguments
func dreamText(args []string, file, url string) (string, error) {
	switch {
	case file != "":
		return ingest.ReadFile(file)
	case url != "":
		return ingest.Fetch(url)
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("provide the dream as arguments, --file or --url")
	}
}

func addCmd(g *globals) *cobra.Command {
	var file, url string

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Log a new dream",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := dreamText(args, file, url)
			if err != nil {
				return err
			}

			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.journal.Record(text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Duplicate {
				fmt.Fprintf(out, "Already logged today: %s\n", shortID(res.Entry.ID))
				return nil
			}

			fmt.Fprintf(out, "Saved dream: %s\n", shortID(res.Entry.ID))
			fmt.Fprintf(out, "Date:     %s\n", res.Entry.Date)
			fmt.Fprintf(out, "Type:     %s\n", res.Entry.Category.Display())
			fmt.Fprintf(out, "Mood:     %s (%+.2f)\n", res.Entry.MoodLabel, res.Entry.MoodScore)
			if len(res.Analysis.Keywords) > 0 {
				fmt.Fprintf(out, "Keywords: %s\n", strings.Join(res.Analysis.Keywords, ", "))
			}
			fmt.Fprintln(out)
			printEmotions(out, res.Entry.Emotions)
			fmt.Fprintf(out, "\n%s\n", journal.Interpret(res.Analysis))
			printAlert(out, res.Alert)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the dream from a text or HTML file")
	cmd.Flags().StringVarP(&url, "url", "u", "", "read the dream from a web page")
	return cmd
}

func listCmd(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent dreams",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.journal.Entries()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No dreams yet. Use 'dream add' to log one.")
				return nil
			}

			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			for _, e := range entries {
				printEntryLine(out, e)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of dreams to show")
	return cmd
}

func showCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a dream and its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:    %s\n", entry.ID)
			fmt.Fprintf(out, "Date:  %s\n", displayDate(entry.Date.String()))
			fmt.Fprintf(out, "Type:  %s\n", entry.Category.Display())
			fmt.Fprintf(out, "Mood:  %s (%+.2f)\n", entry.MoodLabel, entry.MoodScore)
			if kws := classifier.MatchedKeywords(entry.Text); len(kws) > 0 {
				fmt.Fprintf(out, "Keywords: %s\n", strings.Join(kws, ", "))
				fmt.Fprintf(out, "\n%s\n\n", journal.Highlight(entry.Text, kws))
			} else {
				fmt.Fprintf(out, "\n%s\n\n", entry.Text)
			}
			printEmotions(out, entry.Emotions)
			return nil
		},
	}
}

func editCmd(g *globals) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "edit [id] [text]",
		Short: "Replace a dream's text and analyze it again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := dreamText(args[1:], file, "")
			if err != nil {
				return err
			}

			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.Edit(args[0], text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated dream: %s\n", shortID(entry.ID))
			fmt.Fprintf(out, "Type:  %s\n", entry.Category.Display())
			fmt.Fprintf(out, "Mood:  %s (%+.2f)\n", entry.MoodLabel, entry.MoodScore)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the new text from a file")
	return cmd
}

func deleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a dream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.journal.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted dream %s  %s\n", shortID(entry.ID), truncate(entry.Text, 60))
			return nil
		},
	}
}

func searchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search dreams by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.journal.Entries()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			found := journal.Search(entries, query)

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No matching dreams found.")
				return nil
			}

			terms := strings.Fields(query)
			for _, e := range found {
				fmt.Fprintf(out, "%s  %s  %s\n", shortID(e.ID), displayDate(e.Date.String()), journal.Highlight(e.Text, terms))
			}
			return nil
		},
	}
}

func trendCmd(g *globals) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show mood trends, the weekly alert and the emotion heatmap",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if days <= 0 {
				days = a.cfg.Analysis.WindowDays
			}
			report, err := a.journal.Trends(journal.ReportOptions{
				ProfileDays: days,
				HeatmapDays: a.cfg.Analysis.HeatmapDays,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Total == 0 {
				fmt.Fprintln(out, "No dreams yet. Use 'dream add' to log one.")
				return nil
			}
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "profile window in days (default from config)")
	return cmd
}

func clusterCmd(g *globals) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Group dreams into topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if k <= 0 {
				k = a.cfg.Analysis.Clusters
			}
			entries, res, err := a.journal.Clusters(k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No dreams yet. Use 'dream add' to log one.")
				return nil
			}
			if len(entries) < k {
				fmt.Fprintf(out, "Only %d dreams for %d clusters; everything is in cluster 0.\n\n", len(entries), k)
			}

			for _, c := range res.Clusters {
				header := fmt.Sprintf("Cluster %d (%d dreams)", c.ID, c.Size)
				if len(c.TopTerms) > 0 {
					header += ": " + strings.Join(c.TopTerms, ", ")
				}
				fmt.Fprintln(out, header)
				for _, e := range entries {
					if e.ClusterID == c.ID {
						fmt.Fprintf(out, "  %s  %s\n", shortID(e.ID), truncate(e.Text, 60))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "clusters", "k", 0, "number of clusters (default from config)")
	return cmd
}

func similarCmd(g *globals) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "similar [id]",
		Short: "Find dreams worded like another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			ref, similar, err := a.journal.Similar(args[0], n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dreams like %s  %s\n", shortID(ref.ID), truncate(ref.Text, 60))
			if len(similar) == 0 {
				fmt.Fprintln(out, "No similar dreams found.")
				return nil
			}
			for _, e := range similar {
				printEntryLine(out, e)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "limit", "n", 5, "number of dreams to show")
	return cmd
}

func clearCmd(g *globals) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every dream",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !confirm(cmd.InOrStdin(), out, "Delete every logged dream? [y/N] ") {
				fmt.Fprintln(out, "Nothing deleted.")
				return nil
			}

			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.journal.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, "All dreams deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func serveCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			server := api.New(a.journal, addr, a.logger, api.Options{
				Clusters:    a.cfg.Analysis.Clusters,
				ProfileDays: a.cfg.Analysis.WindowDays,
				HeatmapDays: a.cfg.Analysis.HeatmapDays,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Starting server on %s\n", addr)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default from config)")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
