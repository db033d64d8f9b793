package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/symbiose/internal/query"
	"github.com/sells-group/symbiose/internal/suggest"
)

// queryFlags maps CLI flags to the query parameters they set.
var queryFlags = map[string]string{
	"search":          "search",
	"status":          "status",
	"min-score":       "minScore",
	"max-distance":    "maxDistance",
	"sort":            "sort",
	"limit":           "limit",
	"include-ignored": "includeIgnored",
	"tags":            "tags",
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Compute suggestions for one user",
	Long:  "Runs the matching engine once for the user's company and prints the filtered, sorted suggestions.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		userID, _ := cmd.Flags().GetInt64("user")
		if userID <= 0 {
			return eris.New("--user must be a positive user id")
		}
		persist, _ := cmd.Flags().GetBool("persist")
		output, _ := cmd.Flags().GetString("output")
		if output != "table" && output != "json" && output != "yaml" {
			return eris.Errorf("unsupported output format: %s", output)
		}

		env, err := initEngine(ctx, "suggest")
		if err != nil {
			return err
		}
		defer env.Close()

		params, err := query.ParseParams(flagValues(cmd.Flags()), env.Limits)
		if err != nil {
			return err
		}

		res, err := env.Engine.Compute(ctx, userID, suggest.Options{Persist: persist})
		if err != nil {
			return eris.Wrap(err, "suggest")
		}
		page := query.Query(res.Suggestions, params)

		switch output {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		case "yaml":
			return writeYAML(os.Stdout, page)
		}

		if len(page.Items) == 0 {
			fmt.Fprintln(os.Stderr, "No suggestions found.")
			return nil
		}
		formatSuggestions(os.Stdout, page)
		return nil
	},
}

func init() {
	f := suggestCmd.Flags()
	f.Int64("user", 0, "requesting user id (required)")
	f.Bool("persist", false, "record interactions for emitted suggestions")
	f.String("search", "", "free-text search over name, sector, tags and reasons")
	f.String("status", "", "filter by status (new, saved, ignored, contacted)")
	f.Float64("min-score", 0, "minimum compatibility score (0-100)")
	f.Float64("max-distance", 0, "maximum distance in km")
	f.String("sort", "score", "sort order (score, distance, recent, alpha)")
	f.Int("limit", 0, "max number of suggestions (default from config)")
	f.Bool("include-ignored", false, "include ignored suggestions")
	f.StringSlice("tags", nil, "only suggestions carrying one of these tags")
	f.StringP("output", "o", "table", "output format (table, json, yaml)")
	_ = suggestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(suggestCmd)
}

// flagValues converts the query flags the user set into query parameters so
// the CLI and HTTP surfaces share validation.
func flagValues(flags *pflag.FlagSet) url.Values {
	v := url.Values{}
	for name, key := range queryFlags {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if name == "tags" {
			tags, _ := flags.GetStringSlice(name)
			v[key] = tags
			continue
		}
		v.Set(key, f.Value.String())
	}
	return v
}

func writeYAML(out io.Writer, page query.Page) error {
	enc := yaml.NewEncoder(out)
	defer enc.Close() //nolint:errcheck
	if err := enc.Encode(page.Items); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return nil
}

// formatSuggestions writes a tabular list of suggestions to out.
func formatSuggestions(out io.Writer, page query.Page) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tSCORE\tLABEL\tDISTANCE\tSTATUS\tTOP_REASON")
	for _, s := range page.Items {
		distance := "-"
		if s.DistanceKM != nil {
			distance = strconv.FormatFloat(*s.DistanceKM, 'f', 1, 64) + " km"
		}
		top := ""
		if len(s.Reasons) > 0 {
			top = s.Reasons[0].Message
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			s.Company.ID, s.Company.Name, s.Compatibility.Score, s.Compatibility.Label,
			distance, s.Status, top)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d of %d matching suggestions (%d computed)\n", len(page.Items), page.Total, page.Available)
	if tags := page.AppliedFilters.Tags; len(tags) > 0 {
		_, _ = fmt.Fprintf(out, "tags: %s\n", strings.Join(tags, ", "))
	}
}
