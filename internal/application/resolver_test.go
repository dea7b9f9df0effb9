package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-benford/internal/domain"
)

// nationwideFixture mirrors the nested county results shape: a list of
// counties, each carrying a region key and a candidate list.
func nationwideFixture() domain.Mapping {
	county := func(region, biden, trump string) domain.Mapping {
		return domain.Mapping{
			"region_key": domain.Scalar(region),
			"candidates": domain.Sequence{
				domain.Mapping{"last_name": domain.Scalar("Biden"), "votes": domain.Scalar(biden)},
				domain.Mapping{"last_name": domain.Scalar("Trump"), "votes": domain.Scalar(trump)},
			},
		}
	}
	return domain.Mapping{
		"county_data": domain.Sequence{
			county("GA", "1,234", "987"),
			county("GA", "56", "2,001"),
			county("PA", "345", "40"),
		},
	}
}

func TestWalk(t *testing.T) {
	root := nationwideFixture()
	first := root["county_data"].(domain.Sequence)[0]

	tests := []struct {
		name      string
		root      domain.Record
		path      domain.Path
		wantOK    bool
		want      domain.Record
		wantErr   error
		wantStep  string
		wantShape string
	}{
		{
			name:   "field then match then field",
			root:   first,
			path:   domain.Path{domain.Field{Name: "candidates"}, domain.Match{Field: "last_name", Value: "Trump"}, domain.Field{Name: "votes"}},
			wantOK: true,
			want:   domain.Scalar("987"),
		},
		{
			name:   "match on mapping passes through",
			root:   first,
			path:   domain.Path{domain.Match{Field: "region_key", Value: "GA"}, domain.Field{Name: "region_key"}},
			wantOK: true,
			want:   domain.Scalar("GA"),
		},
		{
			name:   "empty path returns root",
			root:   domain.Scalar("7"),
			path:   domain.Path{},
			wantOK: true,
			want:   domain.Scalar("7"),
		},
		{
			name:   "match on mapping with other value is absent",
			root:   first,
			path:   domain.Path{domain.Match{Field: "region_key", Value: "PA"}, domain.Field{Name: "candidates"}},
			wantOK: false,
		},
		{
			name:   "unsatisfied filter skips",
			root:   first,
			path:   domain.Path{domain.Match{Field: "region_key", Value: "PA", Filter: true}, domain.Field{Name: "candidates"}},
			wantOK: false,
		},
		{
			name:     "unsatisfied match is fatal",
			root:     first,
			path:     domain.Path{domain.Field{Name: "candidates"}, domain.Match{Field: "last_name", Value: "Jorgensen"}},
			wantErr:  domain.ErrSelectorUnsatisfied,
			wantStep: "last_name=Jorgensen",
		},
		{
			name:     "missing field is fatal",
			root:     first,
			path:     domain.Path{domain.Field{Name: "state"}},
			wantErr:  domain.ErrFieldNotFound,
			wantStep: "state",
		},
		{
			name:     "match field missing on mapping is fatal",
			root:     first,
			path:     domain.Path{domain.Match{Field: "state", Value: "GA", Filter: true}},
			wantErr:  domain.ErrFieldNotFound,
			wantStep: "state=GA?",
		},
		{
			name:      "field on sequence is a shape error",
			root:      root["county_data"],
			path:      domain.Path{domain.Field{Name: "votes"}},
			wantErr:   domain.ErrUnexpectedShape,
			wantStep:  "votes",
			wantShape: "sequence(len=3)",
		},
		{
			name:     "match on scalar is a shape error",
			root:     domain.Scalar("x"),
			path:     domain.Path{domain.Match{Field: "a", Value: "b"}},
			wantErr:  domain.ErrUnexpectedShape,
			wantStep: "a=b",
		},
		{
			name:     "match over sequence of scalars is a shape error",
			root:     domain.Sequence{domain.Scalar("1")},
			path:     domain.Path{domain.Match{Field: "a", Value: "b"}},
			wantErr:  domain.ErrUnexpectedShape,
			wantStep: "a=b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Walk(tt.root, tt.path)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				var perr *domain.PathError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, tt.wantStep, perr.Selector())
				if tt.wantShape != "" {
					assert.Equal(t, tt.wantShape, perr.Node)
				}
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	first := nationwideFixture()["county_data"].(domain.Sequence)[0]

	t.Run("scalar leaf", func(t *testing.T) {
		v, ok, err := Resolve(first, domain.Path{domain.Field{Name: "region_key"}})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.Scalar("GA"), v)
	})

	t.Run("non-scalar leaf", func(t *testing.T) {
		_, ok, err := Resolve(first, domain.Path{domain.Field{Name: "candidates"}})
		assert.False(t, ok)
		assert.ErrorIs(t, err, domain.ErrUnexpectedShape)
		var perr *domain.PathError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "<end>", perr.Selector())
	})

	t.Run("skip propagates", func(t *testing.T) {
		_, ok, err := Resolve(first, domain.Path{domain.Match{Field: "region_key", Value: "TX", Filter: true}})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCollection(t *testing.T) {
	root := nationwideFixture()

	seq, err := Collection(root, domain.Path{domain.Field{Name: "county_data"}})
	require.NoError(t, err)
	assert.Len(t, seq, 3)

	_, err = Collection(root, domain.Path{domain.Field{Name: "county_data"}, domain.Match{Field: "region_key", Value: "PA"}})
	assert.ErrorIs(t, err, domain.ErrUnexpectedShape)

	seq, err = Collection(root, domain.Path{domain.Match{Field: "kind", Value: "x", Filter: true}})
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	assert.Nil(t, seq)
}
