package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"github.com/olehkravets/satzwerk/pkg/config"
	"github.com/olehkravets/satzwerk/pkg/database"
)

// poolimport loads curated practice sentences from a spreadsheet into the
// database. The workbook carries one sheet per source: "pool" and "spare"
// with a sentence per row (optional topic in the second column), plus an
// optional "topics" sheet listing topic names.
func main() {
	var file string
	flag.StringVar(&file, "file", "sentences.xlsx", "path to the workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	wb, err := excelize.OpenFile(file)
	if err != nil {
		log.Fatalf("failed to open workbook: %v", err)
	}
	defer wb.Close() //nolint:errcheck

	ctx := context.Background()

	for _, sheet := range []struct {
		name   string
		source string
	}{
		{"pool", "POOL"},
		{"spare", "SPARE"},
	} {
		rows, err := wb.GetRows(sheet.name)
		if err != nil {
			log.Printf("skipping sheet %q: %v", sheet.name, err)
			continue
		}
		inserted, err := importSentences(ctx, db, rows, sheet.source)
		if err != nil {
			log.Fatalf("import %s sentences: %v", sheet.name, err)
		}
		log.Printf("imported %d %s sentences", inserted, strings.ToLower(sheet.source))
	}

	if rows, err := wb.GetRows("topics"); err == nil {
		inserted, err := importTopics(ctx, db, rows)
		if err != nil {
			log.Fatalf("import topics: %v", err)
		}
		log.Printf("imported %d topics", inserted)
	}
}

func importSentences(ctx context.Context, db *sqlx.DB, rows [][]string, source string) (int, error) {
	query := `INSERT INTO sentences (text, source, topic)
VALUES ($1, $2, $3)
ON CONFLICT (text) DO NOTHING`
	inserted := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		text := strings.TrimSpace(row[0])
		if text == "" || strings.EqualFold(text, "text") {
			continue
		}
		var topic *string
		if len(row) > 1 {
			if t := strings.TrimSpace(row[1]); t != "" {
				topic = &t
			}
		}
		res, err := db.ExecContext(ctx, query, text, source, topic)
		if err != nil {
			return inserted, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func importTopics(ctx context.Context, db *sqlx.DB, rows [][]string) (int, error) {
	query := `INSERT INTO topics (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	inserted := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || strings.EqualFold(name, "name") {
			continue
		}
		res, err := db.ExecContext(ctx, query, name)
		if err != nil {
			return inserted, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
