package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/riskscope/riskscope/internal/config"
	"github.com/riskscope/riskscope/internal/dread"
	"github.com/riskscope/riskscope/internal/scoring"
	"github.com/riskscope/riskscope/internal/server/handler"
	"github.com/riskscope/riskscope/internal/stride"
	"github.com/riskscope/riskscope/pkg/provider"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile     string
	providerURL string
	apiKey      string
	customerID  string
	daysBack    int
	outFormat   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "riskscope",
	Short: "Risk scoring and threat classification for brand-protection feeds",
	Long: `riskscope turns a threat-intelligence incident feed into three views:

  score     an aggregate 0-1000 risk score for the tenant
  brands    one risk score per monitored brand
  dread     a per-incident DREAD priority ranking
  stride    a STRIDE threat-category distribution`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.riskscope")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if providerURL == "" {
			providerURL = viper.GetString("provider.base_url")
		}
		if apiKey == "" {
			apiKey = viper.GetString("provider.api_key")
		}
		if customerID == "" {
			customerID = viper.GetString("provider.customer_id")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.riskscope/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&providerURL, "provider-url", "", "provider API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "provider API key")
	rootCmd.PersistentFlags().StringVar(&customerID, "customer", "", "provider customer identifier")
	rootCmd.PersistentFlags().IntVar(&daysBack, "days", 30, "analysis window in days")
	rootCmd.PersistentFlags().StringVar(&outFormat, "format", "text", "output format: text or json")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(brandsCmd)
	rootCmd.AddCommand(dreadCmd)
	rootCmd.AddCommand(strideCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// scoringConfig builds the engine configuration: defaults, overlaid with
// any scoring section from the config file, then validated.
func scoringConfig() (*config.Config, error) {
	cfg := config.Default()
	if viper.IsSet("scoring") {
		if err := viper.UnmarshalKey("scoring", cfg); err != nil {
			return nil, fmt.Errorf("decode scoring config: %w", err)
		}
	}
	return cfg, nil
}

func newClient() (*provider.Client, error) {
	return provider.New(providerURL, apiKey, customerID)
}

func window() (start, end time.Time) {
	end = time.Now().UTC()
	return end.AddDate(0, 0, -daysBack), end
}

// fetchInput pulls the record snapshot for the window.
func fetchInput(ctx context.Context, client *provider.Client, withExposures bool) (scoring.Input, error) {
	start, end := window()

	incidents, err := client.Tickets(ctx, provider.TicketQuery{Start: start, End: end})
	if err != nil {
		return scoring.Input{}, fmt.Errorf("fetch tickets: %w", err)
	}

	in := scoring.Input{Incidents: incidents}
	if withExposures {
		exposures, err := client.Credentials(ctx, provider.CredentialQuery{Start: start, End: end})
		if err != nil {
			return scoring.Input{}, fmt.Errorf("fetch credentials: %w", err)
		}
		in.Exposures = exposures
	}
	return in, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── score ────────────────────────────────────────────────────────────────────

var scoreComplaints int

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the tenant-level risk score",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := scoringConfig()
		if err != nil {
			return err
		}
		composer, err := scoring.NewComposer(cfg)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		in, err := fetchInput(cmd.Context(), client, true)
		if err != nil {
			return err
		}
		in.Complaints = scoreComplaints

		result := composer.Score("tenant", in)
		if outFormat == "json" {
			return printJSON(result)
		}
		printScore(result)
		return nil
	},
}

func init() {
	scoreCmd.Flags().IntVar(&scoreComplaints, "complaints", 0, "public complaint count for the period")
}

func printScore(r *scoring.ScoreResult) {
	fmt.Printf("Risk Score (formula %s)\n\n", r.FormulaVersion)
	fmt.Printf("  Score: %d  Grade: %s  %s\n", r.Score, r.Grade, r.Status)
	fmt.Printf("  Incidents: %d  Weighted: %d  Base: %.0f  Penalty: %.2fx\n",
		r.TotalIncidents, r.WeightedScore, r.BaseScore, r.PenaltyFactor)
	if r.Skipped > 0 {
		fmt.Printf("  Skipped records: %d\n", r.Skipped)
	}

	fmt.Println("\n  Indicators:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  \tINDICATOR\tSUB-SCORE\tWEIGHT\tPENALTY")
	for _, ind := range r.Indicators {
		fmt.Fprintf(w, "  \t%s\t%.2f\t%.0f%%\t%+.0f%%\n",
			ind.Name, ind.SubScore, ind.Weight*100, ind.Penalty*100)
	}
	w.Flush() //nolint:errcheck

	if len(r.Breakdown) > 0 {
		type row struct {
			name string
			b    scoring.TypeBreakdown
		}
		rows := make([]row, 0, len(r.Breakdown))
		for name, b := range r.Breakdown {
			rows = append(rows, row{name, b})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].b.Score > rows[j].b.Score })

		fmt.Println("\n  Threat breakdown:")
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  \tTYPE\tCOUNT\tWEIGHT\tSCORE")
		for _, r := range rows {
			fmt.Fprintf(w, "  \t%s\t%d\t%d\t%d\n", r.name, r.b.Count, r.b.Weight, r.b.Score)
		}
		w.Flush() //nolint:errcheck
	}
}

// ── brands ───────────────────────────────────────────────────────────────────

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Compute one risk score per monitored brand",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := scoringConfig()
		if err != nil {
			return err
		}
		composer, err := scoring.NewComposer(cfg)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		brands, err := client.Brands(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch brands: %w", err)
		}
		in, err := fetchInput(cmd.Context(), client, true)
		if err != nil {
			return err
		}

		results := composer.ScoreBrands(brands, in)
		if outFormat == "json" {
			return printJSON(results)
		}

		sorted := append([]*scoring.ScoreResult{}, results...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BRAND\tSCORE\tGRADE\tINCIDENTS\tSTEALERS")
		for _, r := range sorted {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\n",
				r.Subject, r.Score, r.Grade, r.TotalIncidents, r.StealerCount)
		}
		return w.Flush()
	},
}

// ── dread ────────────────────────────────────────────────────────────────────

var dreadTop int

var dreadCmd = &cobra.Command{
	Use:   "dread",
	Short: "Rank incidents by DREAD priority",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := scoringConfig()
		if err != nil {
			return err
		}
		composer, err := scoring.NewComposer(cfg)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		in, err := fetchInput(cmd.Context(), client, false)
		if err != nil {
			return err
		}

		ranking := dread.Prioritize(in.Incidents, &cfg.Dread, composer.Taxonomy(), dreadTop)
		if outFormat == "json" {
			return printJSON(ranking)
		}

		fmt.Printf("DREAD priority ranking (top %d of %d)\n\n", len(ranking.Results), ranking.Total)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tKEY\tTYPE\tSCORE\tD\tR\tE\tA\tD")
		for _, r := range ranking.Results {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%d\t%d\t%d\t%d\t%d\n",
				r.Rank, r.Key, r.Type, r.Score,
				r.Damage, r.Reproducibility, r.Exploitability, r.AffectedUsers, r.Discoverability)
		}
		return w.Flush()
	},
}

func init() {
	dreadCmd.Flags().IntVar(&dreadTop, "top", 10, "number of incidents to show (0 = all)")
}

// ── stride ───────────────────────────────────────────────────────────────────

var strideCmd = &cobra.Command{
	Use:   "stride",
	Short: "Classify incidents into STRIDE threat categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := scoringConfig()
		if err != nil {
			return err
		}
		composer, err := scoring.NewComposer(cfg)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		in, err := fetchInput(cmd.Context(), client, false)
		if err != nil {
			return err
		}

		result := stride.Classify(in.Incidents, composer.Taxonomy())
		if outFormat == "json" {
			return printJSON(result)
		}

		fmt.Printf("STRIDE distribution (%d incidents, %d unclassified)\n\n",
			result.Total, result.Unclassified)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tCOUNT\tSHARE")
		for _, c := range result.Categories {
			fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", c.Name, c.Count, c.Percentage)
		}
		return w.Flush()
	},
}

// ── token ────────────────────────────────────────────────────────────────────

var (
	tokenSecret  string
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token for the riskscope server",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := tokenSecret
		if secret == "" {
			secret = viper.GetString("server.auth_secret")
		}
		signed, err := handler.IssueToken(secret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "auth secret shared with the server")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the riskscope version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("riskscope", version)
	},
}
