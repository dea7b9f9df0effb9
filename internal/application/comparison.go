package application

import (
	"strings"

	"github.com/ahrav/go-benford/internal/domain"
)

// CaptionAllCandidates captions the unreduced comparison table of a panel.
const CaptionAllCandidates = "All Candidates"

// Reduction names a candidate subset to compare on its own, such as
// "Biden v. Trump".
type Reduction struct {
	Name       string
	Candidates []string
}

// BuildComparisons assembles, for every panel of rs, a table aligning each
// non-empty candidate distribution with the reference law on the mode's
// digit domain, followed by one table per reduction.
//
// Reductions are projections of rs (see ResultSet.Reduce); no group is
// recomputed. A reduction that leaves the same number of candidates as
// the full table, or the same member set as an earlier table, is skipped
// so no duplicate tables are emitted. Empty groups never appear.
func BuildComparisons(rs *ResultSet, reductions []Reduction) ([]domain.ComparisonTable, error) {
	reduced := make([]*ResultSet, len(reductions))
	for i, r := range reductions {
		sub, err := rs.Reduce(r.Candidates)
		if err != nil {
			return nil, err
		}
		reduced[i] = sub
	}

	var tables []domain.ComparisonTable
	for _, panel := range rs.Panels() {
		full, ok := panelTable(rs, panel, CaptionAllCandidates)
		if !ok {
			continue
		}
		tables = append(tables, full)

		emitted := map[string]struct{}{memberKey(full): {}}
		fullSize := len(full.Candidates())
		for i, r := range reductions {
			t, ok := panelTable(reduced[i], panel, r.Name)
			if !ok || len(t.Candidates()) == fullSize {
				continue
			}
			mk := memberKey(t)
			if _, dup := emitted[mk]; dup {
				continue
			}
			emitted[mk] = struct{}{}
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// panelTable builds the table for one panel of rs. ok is false when the
// panel has no non-empty candidate group.
func panelTable(rs *ResultSet, panel domain.GroupKey, caption string) (domain.ComparisonTable, bool) {
	t := domain.ComparisonTable{
		Caption: caption,
		Panel:   panel,
		Digits:  rs.Mode().Digits(),
	}
	for _, c := range rs.Candidates() {
		gr, ok := rs.Get(domain.GroupKey{Candidate: c, Region: panel.Region, Breakdown: panel.Breakdown})
		if !ok {
			continue
		}
		t.Series = append(t.Series, domain.Series{Label: c, Distribution: gr.Distribution})
		t.TotalVotes += gr.TotalVotes
		t.Observations += gr.Observations
	}
	if len(t.Series) == 0 {
		return domain.ComparisonTable{}, false
	}
	t.Series = append(t.Series, domain.Series{
		Label:        domain.ReferenceLabel,
		Distribution: domain.ReferenceLaw(rs.Mode()),
		Reference:    true,
	})
	return t, true
}

func memberKey(t domain.ComparisonTable) string {
	return strings.Join(t.Candidates(), "\x00")
}
