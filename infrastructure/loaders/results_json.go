package loaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/ahrav/go-benford/internal/application"
	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// ResultsJSONLoader reads nested election result documents. The whole
// document becomes a Record tree: objects map to Mappings, arrays to
// Sequences and every leaf to a Scalar holding its JSON text. Numbers keep
// their literal form, so 12.0 stays "12.0" and later fails integer
// parsing instead of being silently truncated. null becomes "".
type ResultsJSONLoader struct{}

var _ ports.DataLoader = (*ResultsJSONLoader)(nil)

// Format implements ports.DataLoader.
func (*ResultsJSONLoader) Format() string { return application.FormatResultsJSON }

// Load implements ports.DataLoader.
func (l *ResultsJSONLoader) Load(ctx context.Context, path string) (domain.Record, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ports.NewLoaderError(l.Format(), path, err)
	}
	root, err := l.Decode(ctx, data)
	if err != nil {
		return nil, ports.NewLoaderError(l.Format(), path, err)
	}
	return root, nil
}

// Decode converts a JSON document into a Record tree.
func (*ResultsJSONLoader) Decode(ctx context.Context, data []byte) (domain.Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ports.ErrMalformedInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return toRecord(gjson.ParseBytes(data)), nil
}

func toRecord(v gjson.Result) domain.Record {
	switch {
	case v.IsObject():
		m := make(domain.Mapping)
		v.ForEach(func(key, value gjson.Result) bool {
			m[key.String()] = toRecord(value)
			return true
		})
		return m
	case v.IsArray():
		arr := v.Array()
		seq := make(domain.Sequence, len(arr))
		for i, e := range arr {
			seq[i] = toRecord(e)
		}
		return seq
	}

	switch v.Type {
	case gjson.Number:
		return domain.Scalar(v.Raw)
	case gjson.Null:
		return domain.Scalar("")
	default:
		return domain.Scalar(v.String())
	}
}
