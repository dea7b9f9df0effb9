package ports

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLoaderError covers message formatting and unwrapping for
// LoaderError.
func TestLoaderError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := NewLoaderError("county_csv", "pa.csv", ErrMissingColumn)

		assert.Equal(t, "loader error: format=county_csv, path=pa.csv, err=missing column", err.Error())
		assert.Equal(t, "county_csv", err.Format)
		assert.Equal(t, "pa.csv", err.Path)
		assert.True(t, errors.Is(err, ErrMissingColumn))
	})

	t.Run("wraps io errors", func(t *testing.T) {
		err := NewLoaderError("clarity_xml", "detail.xml", os.ErrNotExist)

		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestRenderError(t *testing.T) {
	base := errors.New("broken pipe")
	err := NewRenderError("ga", base)

	assert.Equal(t, "render error: dataset=ga, err=broken pipe", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestMetricsError(t *testing.T) {
	base := errors.New("registry closed")
	err := NewMetricsError("benford_observations_total", "RecordCounter", base)

	assert.Equal(t, "metrics error: operation=RecordCounter, metric=benford_observations_total, err=registry closed", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("datasets", ErrConfigNotFound)

	assert.Equal(t, "config error: key=datasets, err=configuration not found", err.Error())
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}
