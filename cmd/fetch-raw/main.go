// Command fetch-raw downloads the raw manifest workbook (and optionally
// the nutrition reference workbook) to a local data directory ahead of a
// pipeline run.
package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/foodsec/trucktally/internal/fetch"
	"github.com/foodsec/trucktally/internal/logging"
)

func main() {
	var (
		url    = flag.String("url", "", "Raw workbook URL (required)")
		out    = flag.String("out", "data/trucks_raw.xlsx", "Destination path for the raw workbook")
		refURL = flag.String("ref-url", "", "Nutrition reference workbook URL (optional)")
		refOut = flag.String("ref-out", "data/kcal_reference.xlsx", "Destination path for the reference workbook")
	)
	flag.Parse()

	log := logging.NewDefault()
	defer log.Sync()

	if *url == "" {
		log.Fatal("--url required")
	}

	ctx := context.Background()
	if err := fetch.Download(ctx, *url, *out); err != nil {
		log.Fatal("download raw workbook", zap.Error(err))
	}
	log.Info("raw workbook downloaded", zap.String("path", *out))

	if *refURL != "" {
		if err := fetch.Download(ctx, *refURL, *refOut); err != nil {
			log.Fatal("download reference workbook", zap.Error(err))
		}
		log.Info("reference workbook downloaded", zap.String("path", *refOut))
	}
}
