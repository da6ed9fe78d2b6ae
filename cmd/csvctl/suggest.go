package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/spf13/cobra"
)

func newSuggestCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "suggest <file.csv>",
		Short: "Propose a field mapping for a CSV file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}
			parsed, err := core.ParseCSV(content)
			if err != nil {
				return err
			}

			c, err := core.ResolveCategory(category)
			if err != nil {
				return err
			}
			schema, _ := core.SchemaFor(c)

			mapping := core.SuggestMapping(parsed.Headers, schema.Fields)
			verr := core.ValidateMapping(schema.Fields, mapping)

			var reasons *core.ValidationError
			errors.As(verr, &reasons)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tREQUIRED\tCOLUMN\tPROBLEM")
			for _, f := range schema.Fields {
				required := ""
				if f.Required {
					required = "yes"
				}
				problem := ""
				if reasons != nil {
					if r, ok := reasons.Fields[f.Key]; ok {
						problem = r.Describe(f.Label)
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Key, required, mapping[f.Key], problem)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if unmapped := unmappedHeaders(parsed.Headers, mapping); len(unmapped) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "unmapped columns: %v\n", unmapped)
			}
			return verr
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Batch type: Company or People (default: Company)")
	return cmd
}

// unmappedHeaders lists headers no field was mapped to, sorted.
func unmappedHeaders(headers []string, m core.FieldMapping) []string {
	used := make(map[string]bool, len(m))
	for _, h := range m {
		used[h] = true
	}
	var out []string
	for _, h := range headers {
		if !used[h] {
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}
