// Command tally-csv exports the ledger to a CSV file or imports one back,
// sharing the validation and storage path of the web server.
package main

import (
	"context"
	"flag"
	"os"

	"tally/internal/cli"
	"tally/internal/csvio"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	exportPath := flag.String("export", "", "write the ledger as CSV to FILE ('-' for stdout)")
	importPath := flag.String("import", "", "read transactions from a CSV FILE and add them")
	from := flag.String("from", "", "only export transactions on or after this date (YYYY-MM-DD)")
	to := flag.String("to", "", "only export transactions on or before this date (YYYY-MM-DD)")
	category := flag.String("category", "", "only export transactions with this exact category")
	flag.Parse()

	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentCSV)

	if (*exportPath == "") == (*importPath == "") {
		logger.Error("Exactly one of -export or -import is required")
		flag.Usage()
		os.Exit(2)
	}

	repo := cli.InitStore(logger, cfg.DBPath)
	defer repo.Close()

	ledger := services.NewLedger(repo)
	ctx := context.Background()

	if *exportPath != "" {
		runExport(ctx, logger, ledger, *exportPath, storage.Filter{
			StartDate: *from,
			EndDate:   *to,
			Category:  *category,
		})
		return
	}
	runImport(ctx, logger, ledger, *importPath)
}

func runExport(ctx context.Context, logger *applog.Logger, ledger *services.Ledger, path string, f storage.Filter) {
	txs, err := ledger.List(ctx, f, services.ExportListLimit)
	if err != nil {
		logger.Error("Failed to list transactions", applog.FieldError, err)
		os.Exit(1)
	}

	out := os.Stdout
	if path != "-" {
		out, err = os.Create(path)
		if err != nil {
			logger.Error("Failed to create output file", applog.FieldError, err, "path", path)
			os.Exit(1)
		}
		defer out.Close()
	}

	if err := csvio.Export(out, txs); err != nil {
		logger.Error("Failed to write CSV", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export complete",
		applog.FieldOperation, applog.OpExport,
		"rows", len(txs),
		"path", path)
}

func runImport(ctx context.Context, logger *applog.Logger, ledger *services.Ledger, path string) {
	in, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open input file", applog.FieldError, err, "path", path)
		os.Exit(1)
	}
	defer in.Close()

	txs, err := csvio.Import(in)
	if err != nil {
		logger.Error("Failed to parse CSV", applog.FieldError, err, "path", path)
		os.Exit(1)
	}

	// Rows go through the same validation and sign normalization as the web
	// form. IDs from the file are not preserved; the store assigns fresh ones.
	added := 0
	for _, tx := range txs {
		_, err := ledger.Add(ctx, services.Input{
			Date:     tx.Date,
			Amount:   tx.Amount.String(),
			Type:     string(tx.Type),
			Category: tx.Category,
			Tags:     tx.Tags,
			Notes:    tx.Notes,
		})
		if err != nil {
			logger.Error("Failed to add transaction", applog.FieldError, err,
				applog.FieldDate, tx.Date,
				applog.FieldAmount, tx.Amount.String())
			os.Exit(1)
		}
		added++
	}
	logger.Info("Import complete",
		applog.FieldOperation, applog.OpImport,
		"rows", added,
		"path", path)
}
