package main

// Reports files under the upload root that no profile references. Deleting a
// profile intentionally leaves its files behind, so orphans accumulate; this
// script is the offline answer. Report-only: it never deletes anything.

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"pdm01/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// referencedNames collects the base names of every file path stored on any
// profile's file columns.
func referencedNames(gdb *gorm.DB) map[string]bool {
	type fileRow struct {
		IDDocument string
		Photo      string
		Signature  string
	}
	var rows []fileRow
	if err := gdb.Model(&models.Profile{}).Select("id_document", "photo", "signature").Find(&rows).Error; err != nil {
		log.Fatalf("query profiles: %v", err)
	}
	refs := make(map[string]bool, len(rows)*3)
	for _, r := range rows {
		for _, p := range []string{r.IDDocument, r.Photo, r.Signature} {
			if p != "" {
				refs[filepath.Base(p)] = true
			}
		}
	}
	return refs
}

func main() {
	dir := flag.String("dir", "uploads", "upload root to scan")
	verbose := flag.Bool("verbose", false, "list referenced files too")
	flag.Parse()

	gdb := mustDBFromEnv()
	refs := referencedNames(gdb)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("read dir %s: %v", *dir, err)
	}

	var orphans []string
	var orphanBytes int64
	for _, e := range entries {
		if e.IsDir() {
			continue // thumbs etc.
		}
		if refs[e.Name()] {
			if *verbose {
				fmt.Printf("referenced  %s\n", e.Name())
			}
			continue
		}
		info, err := e.Info()
		if err == nil {
			orphanBytes += info.Size()
		}
		orphans = append(orphans, e.Name())
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		fmt.Printf("orphan      %s\n", name)
	}
	fmt.Printf("%d orphaned files, %d bytes (of %d files scanned, %d referenced)\n",
		len(orphans), orphanBytes, len(entries), len(refs))
}
