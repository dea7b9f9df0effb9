package application

import (
	"fmt"

	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// Field names produced by the built-in loaders.
const (
	// Clarity XML rows.
	ClarityContest  = "contest"
	ClarityChoice   = "choice"
	ClarityVoteType = "vote_type"
	ClarityCounty   = "county"
	ClarityVotes    = "votes"

	// County CSV columns.
	CSVCountyName       = "County Name"
	CSVCandidateName    = "Candidate Name"
	CSVVotes            = "Votes"
	CSVMailVotes        = "Mail Votes"
	CSVProvisionalVotes = "Provisional Votes"
	// CSVNotMailVotes is derived as votes minus mail minus provisional.
	CSVNotMailVotes = "Not Mail Votes"

	// Nested results JSON.
	JSONRegionKey  = "region_key"
	JSONCandidates = "candidates"
	JSONLastName   = "last_name"
	JSONVotes      = "votes"
)

// Collection paths inside a results JSON document.
var (
	JSONCountyData = domain.Path{
		domain.Field{Name: "map_county_data"},
		domain.Field{Name: "election"},
		domain.Field{Name: "race"},
	}
	JSONStateData = domain.Path{domain.Field{Name: "top_level_ru"}}
)

// Pass describes one aggregation pass of a profile.
type Pass struct {
	// Grouping is the configuration toggle that enables the pass.
	Grouping Grouping

	// Description labels the pass in reports, e.g. "Mail Ballots".
	Description string

	// Collection leads from the dataset root to the record list.
	Collection domain.Path

	// Template is bound per GroupKey to reach one vote count.
	Template domain.PathTemplate

	// Breakdowns is the fixed breakdown dimension, if any.
	Breakdowns []string

	// BreakdownField enumerates the breakdown dimension from the data
	// when set. It takes precedence over Breakdowns.
	BreakdownField string

	// ByRegion partitions the pass over the configured regions.
	ByRegion bool

	// Derived marks a pass that reads fields added by Profile.Derive.
	Derived bool
}

// Profile binds a dataset format to the way its records are prepared and
// grouped. Profiles are pure data; the Pipeline interprets them.
type Profile struct {
	// Format is the dataset format the profile handles.
	Format string

	// RowFilter selects the rows kept before any other step. It is made
	// of filter Match selectors; rows failing it are dropped.
	RowFilter domain.Path

	// CandidateField names the raw candidate label of flat rows. When set
	// the rows are canonicalized into a "candidate" field before
	// aggregation.
	CandidateField string

	// Derive adds computed fields to flat rows. It must not modify its
	// input. It only runs when an enabled pass is Derived.
	Derive func(domain.Sequence) (domain.Sequence, error)

	// Passes are the aggregation passes in report order.
	Passes []Pass
}

// Flat reports whether the profile's dataset root is a flat row list that
// is filtered, canonicalized and derived before aggregation.
func (p Profile) Flat() bool {
	return len(p.RowFilter) > 0 || p.CandidateField != "" || p.Derive != nil
}

// NeedsDerive reports whether any pass enabled by enabled reads derived
// fields.
func (p Profile) NeedsDerive(enabled func(Grouping) bool) bool {
	if p.Derive == nil {
		return false
	}
	for _, pass := range p.Passes {
		if pass.Derived && enabled(pass.Grouping) {
			return true
		}
	}
	return false
}

// ProfileFor returns the grouping profile for a dataset.
func ProfileFor(ds DatasetConfig) (Profile, error) {
	switch ds.Format {
	case FormatClarityXML:
		return clarityProfile(ds.Contest), nil
	case FormatCountyCSV:
		return countyCSVProfile(), nil
	case FormatResultsJSON:
		return resultsJSONProfile(), nil
	default:
		return Profile{}, fmt.Errorf("dataset %s: %w: %q", ds.Name, ports.ErrUnsupportedFormat, ds.Format)
	}
}

// candidateRow matches the canonical candidate of a flat row.
var candidateRow = domain.Match{Field: CandidateField, Value: domain.PlaceholderCandidate, Filter: true}

func clarityProfile(contest string) Profile {
	p := Profile{
		Format:         FormatClarityXML,
		CandidateField: ClarityChoice,
		Passes: []Pass{
			{
				Grouping:    GroupByCounty,
				Description: "By County",
				Template:    domain.PathTemplate{candidateRow, domain.Field{Name: ClarityVotes}},
			},
			{
				Grouping:    GroupByVoteType,
				Description: "By Votetype",
				Template: domain.PathTemplate{
					candidateRow,
					domain.Match{Field: ClarityVoteType, Value: domain.PlaceholderBreakdown, Filter: true},
					domain.Field{Name: ClarityVotes},
				},
				BreakdownField: ClarityVoteType,
			},
		},
	}
	if contest != "" {
		p.RowFilter = domain.Path{domain.Match{Field: ClarityContest, Value: contest, Filter: true}}
	}
	return p
}

func countyCSVProfile() Profile {
	byColumn := domain.PathTemplate{candidateRow, domain.Field{Name: domain.PlaceholderBreakdown}}
	return Profile{
		Format:         FormatCountyCSV,
		CandidateField: CSVCandidateName,
		Derive:         deriveNotMailVotes,
		Passes: []Pass{
			{
				Grouping:    GroupByCounty,
				Description: "All Votes",
				Template:    domain.PathTemplate{candidateRow, domain.Field{Name: CSVVotes}},
			},
			{
				Grouping:    GroupByMailStatus,
				Description: "Mail Ballots",
				Template:    byColumn,
				Breakdowns:  []string{CSVMailVotes, CSVNotMailVotes},
				Derived:     true,
			},
			{
				Grouping:    GroupByProvisionalStatus,
				Description: "Provisional Ballots",
				Template:    byColumn,
				Breakdowns:  []string{CSVProvisionalVotes},
			},
		},
	}
}

func resultsJSONProfile() Profile {
	perCandidate := domain.PathTemplate{
		domain.Field{Name: JSONCandidates},
		domain.Match{Field: JSONLastName, Value: domain.PlaceholderCandidate},
		domain.Field{Name: JSONVotes},
	}
	return Profile{
		Format: FormatResultsJSON,
		Passes: []Pass{
			{
				Grouping:    GroupByCounty,
				Description: "by County",
				Collection:  JSONCountyData,
				Template:    perCandidate,
			},
			{
				Grouping:    GroupByState,
				Description: "by County",
				Collection:  JSONCountyData,
				Template: append(domain.PathTemplate{
					domain.Match{Field: JSONRegionKey, Value: domain.PlaceholderRegion, Filter: true},
				}, perCandidate...),
				ByRegion: true,
			},
			{
				Grouping:    GroupByStateTotals,
				Description: "by State",
				Collection:  JSONStateData,
				Template:    perCandidate,
			},
		},
	}
}

// deriveNotMailVotes adds the "Not Mail Votes" column: total votes minus
// mail and provisional votes. A negative result is kept as is and later
// rejected by the digit policy.
func deriveNotMailVotes(rows domain.Sequence) (domain.Sequence, error) {
	out := make(domain.Sequence, len(rows))
	for i, rec := range rows {
		row, ok := rec.(domain.Mapping)
		if !ok {
			return nil, fmt.Errorf("record %d: %w", i, domain.NewPathError(nil, 0, rec, domain.ErrUnexpectedShape))
		}
		var n [3]int64
		for j, col := range []string{CSVVotes, CSVMailVotes, CSVProvisionalVotes} {
			path := domain.Path{domain.Field{Name: col}}
			raw, _, err := Resolve(row, path)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			if n[j], err = domain.ParseVotes(string(raw)); err != nil {
				return nil, fmt.Errorf("record %d at %s: %w", i, path, err)
			}
		}
		out[i] = row.With(CSVNotMailVotes, domain.Scalar(fmt.Sprint(n[0]-n[1]-n[2])))
	}
	return out, nil
}
