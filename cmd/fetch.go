package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/fetcher"
	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/runner"
)

var (
	fetchYear     int
	fetchExchange string
	fetchFile     string
	fetchOut      string
	fetchZip      bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [company ...]",
	Short: "Download annual reports for one or more companies",
	Long: "Each argument is a company name, listing code, or portal URL. " +
		"Use --file to read a newline- or comma-separated list instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		companies := args
		if fetchFile != "" {
			raw, err := os.ReadFile(fetchFile)
			if err != nil {
				return eris.Wrap(err, "read company file")
			}
			companies = append(companies, runner.SplitCompanies(string(raw))...)
		}
		if len(companies) == 0 {
			return eris.New("no companies given (pass arguments or --file)")
		}

		sel, err := runner.ParseSelector(fetchExchange)
		if err != nil {
			return err
		}

		e := initEnv(cfg)
		res, err := e.runner.Run(cmd.Context(), companies, fetchYear, sel)
		if err != nil {
			return err
		}

		for _, line := range res.Log.Entries() {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}

		if len(res.Documents) == 0 {
			return eris.New("no documents retrieved")
		}

		return writeOutputs(cmd, res.Documents, fetchOut, fetchYear, fetchZip)
	},
}

// writeOutputs writes every document to outDir, then additionally writes the
// zip bundle when forced or when the run produced more than one document.
func writeOutputs(cmd *cobra.Command, docs []*model.Document, outDir string, year int, forceZip bool) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrap(err, "create output dir")
	}

	for _, doc := range docs {
		path := filepath.Join(outDir, doc.Filename)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", doc.Filename)
		}
		zap.L().Info("document written", zap.String("path", path), zap.Int("bytes", len(doc.Data)))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}

	if !forceZip && len(docs) <= 1 {
		return nil
	}

	vals := make([]model.Document, len(docs))
	for i, d := range docs {
		vals[i] = *d
	}
	data, err := fetcher.BundleZIP(vals)
	if err != nil {
		return eris.Wrap(err, "bundle documents")
	}

	path := filepath.Join(outDir, fmt.Sprintf("AnnualReports_%d.zip", year))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write bundle")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d reports)\n", path, len(docs))
	return nil
}

func init() {
	fetchCmd.Flags().IntVar(&fetchYear, "year", 0, "target fiscal year, e.g. 2024 (required)")
	fetchCmd.Flags().StringVar(&fetchExchange, "exchange", "BOTH", "exchange to query: BSE, NSE, or BOTH")
	fetchCmd.Flags().StringVar(&fetchFile, "file", "", "file with a newline- or comma-separated company list")
	fetchCmd.Flags().StringVar(&fetchOut, "out", ".", "output directory")
	fetchCmd.Flags().BoolVar(&fetchZip, "zip", false, "bundle results into a single zip even for one document")
	fetchCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(fetchCmd)
}
