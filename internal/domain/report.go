package domain

// GroupResult is the outcome of folding one GroupKey: the histogram, its
// normalized distribution and the totals a renderer needs for titles.
// GroupResults are shared between full and reduced result sets and MUST
// NOT be mutated once produced.
type GroupResult struct {
	Key          GroupKey     `json:"key"`
	Histogram    *Histogram   `json:"-"`
	Distribution Distribution `json:"-"`
	TotalVotes   int64        `json:"total_votes"`
	Observations int64        `json:"observations"`
}

// Series is one named distribution of a comparison table.
type Series struct {
	Label        string       `json:"label"`
	Distribution Distribution `json:"-"`
	// Reference marks the Benford reference series.
	Reference bool `json:"reference,omitempty"`
}

// ComparisonTable aligns several candidate distributions and the
// reference law on a single digit domain so they can share axes.
type ComparisonTable struct {
	// Caption names the candidate set, e.g. "All Candidates" or
	// "Biden v. Trump".
	Caption string `json:"caption"`

	// Panel is the region/breakdown the table compares within.
	Panel GroupKey `json:"panel"`

	// Digits is the shared digit domain.
	Digits []int `json:"digits"`

	// Series holds one entry per included candidate, in configured
	// order, followed by the reference law.
	Series []Series `json:"series"`

	// TotalVotes and Observations are summed over the included
	// candidates.
	TotalVotes   int64 `json:"total_votes"`
	Observations int64 `json:"observations"`
}

// Candidates returns the labels of the non-reference series.
func (t ComparisonTable) Candidates() []string {
	out := make([]string, 0, len(t.Series))
	for _, s := range t.Series {
		if !s.Reference {
			out = append(out, s.Label)
		}
	}
	return out
}

// PassResult holds everything one grouping pass produced.
type PassResult struct {
	// Grouping is the configured grouping name, e.g. "by_state".
	Grouping string `json:"grouping"`

	// Description is a short human label such as "by County".
	Description string `json:"description"`

	// Groups are the non-empty groups in deterministic order.
	Groups []*GroupResult `json:"groups"`

	// Empty lists groups that produced no eligible observations.
	Empty []GroupKey `json:"empty,omitempty"`

	// Comparisons are the candidate comparison tables for each panel.
	Comparisons []ComparisonTable `json:"comparisons"`
}

// Report is the complete output for one dataset in one run, handed to a
// Renderer.
type Report struct {
	RunID     string       `json:"run_id"`
	Dataset   string       `json:"dataset"`
	Label     string       `json:"label"`
	Mode      DigitMode    `json:"-"`
	Reference Distribution `json:"-"`
	Passes    []PassResult `json:"passes"`

	// Shares is each candidate's portion of the eligible votes of the
	// first pass, in candidate order.
	Shares []VoteShare `json:"shares,omitempty"`
}

// VoteShare is one candidate's portion of the votes counted in a pass.
type VoteShare struct {
	Candidate string  `json:"candidate"`
	Votes     int64   `json:"votes"`
	Share     float64 `json:"share"`
}

// VoteShares computes, per candidate in order, the fraction of the summed
// vote totals of groups. Candidates without a group get a zero share. When
// no votes were counted every share is zero.
func VoteShares(candidates []string, groups []*GroupResult) []VoteShare {
	votes := make(map[string]int64, len(candidates))
	var total int64
	for _, g := range groups {
		votes[g.Key.Candidate] += g.TotalVotes
		total += g.TotalVotes
	}
	out := make([]VoteShare, len(candidates))
	for i, c := range candidates {
		out[i] = VoteShare{Candidate: c, Votes: votes[c]}
		if total > 0 {
			out[i].Share = float64(votes[c]) / float64(total)
		}
	}
	return out
}
