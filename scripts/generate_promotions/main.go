package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Creates sample promotion rule files for local runs.
// Each line is CODE,kind,value[,cap]. Later files override earlier ones when
// both define the same code, so seasonal.gz replaces the built-in HEMAT50.
func main() {
	dataDir := "data/promotions"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := []struct {
		name  string
		rules []string
	}{
		{
			name: "base.gz",
			rules: []string{
				"# code,kind,value,cap",
				"NEWUSER,fixed,25000",
				"KOPI20,percentage,20,15000",
			},
		},
		{
			name: "seasonal.gz",
			rules: []string{
				"RAMADAN,percentage,15,30000",
				"HEMAT50,fixed,40000",
			},
		},
	}

	for _, f := range files {
		filePath := filepath.Join(dataDir, f.name)

		if err := createRuleFile(filePath, f.rules); err != nil {
			log.Fatalf("Failed to create %s: %v", f.name, err)
		}

		fmt.Printf("Created %s with %d lines\n", filePath, len(f.rules))
	}

	fmt.Println("\nSample promotion files created successfully!")
	fmt.Println("Load them with PROMOTION_FILES=data/promotions/base.gz,data/promotions/seasonal.gz")
}

func createRuleFile(filePath string, rules []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, rule := range rules {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", rule); err != nil {
			return fmt.Errorf("failed to write rule: %w", err)
		}
	}

	return nil
}
