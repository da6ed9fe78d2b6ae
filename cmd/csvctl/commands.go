package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/spf13/cobra"
)

type importOptions struct {
	name     string
	category string
	asJSON   bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV file as a new batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Batch name (default: file name)")
	cmd.Flags().StringVar(&opts.category, "category", "", "Batch type: Company or People (default: Company)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, path string, opts importOptions) error {
	svc, err := a.open(cmd.Context())
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return withCode(exitUsage, err)
	}
	if maxSize := a.cfg.Upload.MaxFileSize; info.Size() > maxSize {
		return withCode(exitValidation, fmt.Errorf("file too large: %d bytes exceeds %d", info.Size(), maxSize))
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return withCode(exitValidation, fmt.Errorf("only csv files are allowed: %s", path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return withCode(exitUsage, err)
	}

	result, err := svc.ImportBatch(cmd.Context(), core.ImportRequest{
		OwnerID:   a.owner,
		FileName:  filepath.Base(path),
		Content:   content,
		BatchName: opts.name,
		Category:  opts.category,
	})
	if err != nil {
		return err
	}

	if len(result.DuplicateHeaders) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: duplicate headers %s; the right-most column was kept\n",
			strings.Join(result.DuplicateHeaders, ", "))
	}

	if opts.asJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d rows as %s %q\n",
		result.File.ID, result.File.RowCount, result.File.Category, result.File.BatchName)
	return nil
}

func newFilesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List imported files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			files, err := svc.ListFiles(cmd.Context(), a.owner)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), files)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tBATCH\tTYPE\tROWS\tUPLOADED\tFILE")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					f.ID, f.BatchName, f.Category, f.RowCount,
					f.UploadedAt.Local().Format(time.DateTime), f.OriginalName)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

type rowsOptions struct {
	page   int
	limit  int
	sort   string
	filter string
	asJSON bool
}

func newRowsCmd(a *app) *cobra.Command {
	var opts rowsOptions

	cmd := &cobra.Command{
		Use:   "rows <fileID>",
		Short: "Show one page of a file's rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			page, err := svc.ListRows(cmd.Context(), core.ListRowsParams{
				FileID:  args[0],
				OwnerID: a.owner,
				Page:    opts.page,
				Limit:   opts.limit,
				Sort:    core.SortDirection(strings.ToLower(opts.sort)),
				Filter:  opts.filter,
			})
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), page)
			}
			return printRows(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", core.DefaultPage, "Page number, starting at 1")
	cmd.Flags().IntVar(&opts.limit, "limit", core.DefaultLimit, "Rows per page")
	cmd.Flags().StringVar(&opts.sort, "sort", string(core.SortAsc), "Row order: asc or desc")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only rows with a value containing this text (case-sensitive)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print as JSON")
	return cmd
}

func printRows(w io.Writer, page *core.RowPage) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\n", strings.Join(page.File.ColumnHeaders, "\t"))

	values := make([]string, len(page.File.ColumnHeaders))
	for _, r := range page.Rows {
		for i, h := range page.File.ColumnHeaders {
			values[i] = r.Data[h].Text()
		}
		fmt.Fprintf(tw, "%d\t%s\n", r.Index, strings.Join(values, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d (%d rows)\n", page.Page, page.PageCount, page.Total)
	return err
}

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <fileID>",
		Short: "Write a file's rows back out as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return svc.ExportCSV(cmd.Context(), args[0], a.owner, cmd.OutOrStdout())
			}

			// Resolve first so a bad ID leaves no empty file behind.
			file, err := svc.GetFile(cmd.Context(), args[0], a.owner)
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return withCode(exitUsage, err)
			}
			if err := svc.ExportFile(cmd.Context(), file, f); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (default: stdout)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <fileID>",
		Short: "Delete a file and all of its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.DeleteFile(cmd.Context(), args[0], a.owner); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
