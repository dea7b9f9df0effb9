package loaders

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-benford/internal/application"
	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// requiredCSVColumns must appear in the header of a county CSV.
var requiredCSVColumns = []string{
	application.CSVCountyName,
	application.CSVCandidateName,
	application.CSVVotes,
	application.CSVMailVotes,
	application.CSVProvisionalVotes,
}

// CountyCSVLoader reads county-level result tables with one row per
// county and candidate. Each data row becomes a Mapping keyed by the
// header; extra columns are kept.
type CountyCSVLoader struct{}

var _ ports.DataLoader = (*CountyCSVLoader)(nil)

// Format implements ports.DataLoader.
func (*CountyCSVLoader) Format() string { return application.FormatCountyCSV }

// Load implements ports.DataLoader. The root record is a Sequence of rows.
func (l *CountyCSVLoader) Load(ctx context.Context, path string) (domain.Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, ports.NewLoaderError(l.Format(), path, err)
	}
	defer f.Close()

	rows, err := l.Decode(ctx, f)
	if err != nil {
		return nil, ports.NewLoaderError(l.Format(), path, err)
	}
	return rows, nil
}

// Decode reads the CSV table from r.
func (*CountyCSVLoader) Decode(ctx context.Context, r io.Reader) (domain.Sequence, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ports.ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ports.ErrMalformedInput, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if err := checkColumns(header); err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = len(header)

	rows := domain.Sequence{}
	for {
		if len(rows)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrMalformedInput, err)
		}

		row := make(domain.Mapping, len(header))
		for i, h := range header {
			row[h] = domain.Scalar(strings.TrimSpace(rec[i]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func checkColumns(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, c := range requiredCSVColumns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ports.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}
