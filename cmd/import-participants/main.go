package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/app"
	"github.com/yakoovad/hackathon-portal/internal/config"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "CSV file whose first column holds participant emails")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import-participants -file participants.csv")
		os.Exit(2)
	}

	cfg, err := config.LoadStorage()
	if err != nil {
		panic(err)
	}

	l, err := logger.NewLogger(cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer l.Sync()

	ctx := logger.WithLogger(context.Background(), l)

	f, err := os.Open(*file)
	if err != nil {
		l.Fatal("failed to open file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	emails, err := readEmails(f)
	if err != nil {
		l.Fatal("failed to read emails", zap.String("file", *file), zap.Error(err))
	}

	awsCfg, err := app.LoadAWS(ctx, cfg)
	if err != nil {
		l.Fatal("failed to load aws config", zap.Error(err))
	}

	stores, err := app.OpenStores(ctx, cfg, awsCfg)
	if err != nil {
		l.Fatal("failed to open stores", zap.Error(err))
	}
	defer stores.Close()

	summary := service.NewParticipantService(stores.Participants).ImportParticipants(ctx, emails)

	fmt.Printf("added: %d, skipped: %d, errors: %d\n", summary.Added, summary.Skipped, len(summary.Errors))
	for _, e := range summary.Errors {
		fmt.Println("  " + e)
	}
	if len(summary.Errors) > 0 {
		stores.Close()
		os.Exit(1)
	}
}

// readEmails takes the first column of every row, skipping blanks and an
// optional "email" header.
func readEmails(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var emails []string
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return emails, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row+1)
		}
		if len(rec) == 0 {
			continue
		}
		v := strings.TrimSpace(rec[0])
		if v == "" || (row == 0 && strings.EqualFold(v, "email")) {
			continue
		}
		emails = append(emails, v)
	}
}
