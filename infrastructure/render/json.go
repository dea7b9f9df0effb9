package render

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

var _ ports.Renderer = (*JSONRenderer)(nil)

// JSONRenderer writes each report as one indented JSON document. Digit
// vectors are aligned with the report's "digits" array.
type JSONRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONRenderer creates a JSONRenderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

type jsonReport struct {
	RunID     string             `json:"run_id"`
	Dataset   string             `json:"dataset"`
	Label     string             `json:"label,omitempty"`
	DigitMode string             `json:"digit_mode"`
	Digits    []int              `json:"digits"`
	Reference []float64          `json:"reference"`
	Passes    []jsonPass         `json:"passes"`
	Shares    []domain.VoteShare `json:"shares,omitempty"`
}

type jsonPass struct {
	Grouping    string            `json:"grouping"`
	Description string            `json:"description"`
	Groups      []jsonGroup       `json:"groups"`
	Empty       []domain.GroupKey `json:"empty,omitempty"`
	Comparisons []jsonTable       `json:"comparisons"`
}

type jsonGroup struct {
	Key          domain.GroupKey `json:"key"`
	TotalVotes   int64           `json:"total_votes"`
	Observations int64           `json:"observations"`
	Counts       []int64         `json:"counts"`
	Proportions  []float64       `json:"proportions"`
}

type jsonTable struct {
	Caption      string          `json:"caption"`
	Panel        domain.GroupKey `json:"panel"`
	TotalVotes   int64           `json:"total_votes"`
	Observations int64           `json:"observations"`
	Series       []jsonSeries    `json:"series"`
}

type jsonSeries struct {
	Label       string    `json:"label"`
	Reference   bool      `json:"reference,omitempty"`
	Proportions []float64 `json:"proportions"`
}

// Render implements ports.Renderer.
func (r *JSONRenderer) Render(ctx context.Context, report *domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := toJSONReport(report)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(out)
}

func toJSONReport(report *domain.Report) jsonReport {
	out := jsonReport{
		RunID:     report.RunID,
		Dataset:   report.Dataset,
		Label:     report.Label,
		DigitMode: report.Mode.String(),
		Digits:    report.Mode.Digits(),
		Reference: report.Reference.Proportions(),
		Passes:    make([]jsonPass, len(report.Passes)),
		Shares:    report.Shares,
	}
	for i, p := range report.Passes {
		jp := jsonPass{
			Grouping:    p.Grouping,
			Description: p.Description,
			Groups:      make([]jsonGroup, len(p.Groups)),
			Empty:       p.Empty,
			Comparisons: make([]jsonTable, len(p.Comparisons)),
		}
		for j, g := range p.Groups {
			jp.Groups[j] = jsonGroup{
				Key:          g.Key,
				TotalVotes:   g.TotalVotes,
				Observations: g.Observations,
				Counts:       g.Histogram.Counts(),
				Proportions:  g.Distribution.Proportions(),
			}
		}
		for j, t := range p.Comparisons {
			jt := jsonTable{
				Caption:      t.Caption,
				Panel:        t.Panel,
				TotalVotes:   t.TotalVotes,
				Observations: t.Observations,
				Series:       make([]jsonSeries, len(t.Series)),
			}
			for k, s := range t.Series {
				jt.Series[k] = jsonSeries{
					Label:       s.Label,
					Reference:   s.Reference,
					Proportions: s.Distribution.Proportions(),
				}
			}
			jp.Comparisons[j] = jt
		}
		out.Passes[i] = jp
	}
	return out
}
