package promotion

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped rule files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based rule loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promotion-loader").Logger(),
	}
}

// Load reads a gzipped rule file and returns its table.
// The file holds one CODE,kind,value[,cap] rule per line; blank lines and
// lines starting with # are ignored.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*Table, error) {
	l.logger.Info().Str("file", filePath).Msg("loading promotion file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open promotion file")
		return nil, fmt.Errorf("failed to open promotion file %s: %w", filePath, err)
	}
	defer file.Close()

	table, err := readTable(ctx, file, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read promotion file")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("rules_loaded", table.Size()).
		Msg("promotion file loaded successfully")

	return table, nil
}

// readTable decodes a gzipped rule stream. name is only used in error messages.
func readTable(ctx context.Context, r io.Reader, name string) (*Table, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
	}
	defer gzipReader.Close()

	table := NewTable()
	scanner := bufio.NewScanner(gzipReader)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := ParseRule(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, lineNo, err)
		}
		table.add(rule)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading promotion file %s: %w", name, err)
	}

	return table, nil
}
