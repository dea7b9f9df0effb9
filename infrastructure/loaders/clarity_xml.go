// Package loaders parses election result files into the generic record
// shape the engine consumes. Vote counts are passed through as text; the
// engine owns parsing and digit extraction.
package loaders

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ahrav/go-benford/internal/application"
	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// ctxCheckInterval is how many tokens or rows are decoded between
// context checks.
const ctxCheckInterval = 4096

// ClarityXMLLoader reads Clarity election night "detail.xml" exports.
//
// The export nests Contest > Choice > VoteType > County, with per-county
// counts in the County "votes" attribute. Load flattens that tree into one
// row per county count:
//
//	{contest, choice, vote_type, county, votes}
//
// County elements outside a VoteType, such as the turnout summary, are
// ignored.
type ClarityXMLLoader struct{}

var _ ports.DataLoader = (*ClarityXMLLoader)(nil)

// Format implements ports.DataLoader.
func (*ClarityXMLLoader) Format() string { return application.FormatClarityXML }

// Load implements ports.DataLoader. The root record is a Sequence of rows.
func (l *ClarityXMLLoader) Load(ctx context.Context, path string) (domain.Record, error) {
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

// clarityCursor tracks the enclosing elements of the current token.
type clarityCursor struct {
	contest, choice, voteType string
	inContest, inChoice, inType bool
}

// Decode streams the XML document from r into flat rows.
func (*ClarityXMLLoader) Decode(ctx context.Context, r io.Reader) (domain.Sequence, error) {
	dec := xml.NewDecoder(r)
	var (
		cur    clarityCursor
		rows   domain.Sequence
		tokens int
	)

	for {
		tokens++
		if tokens%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrMalformedInput, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "Contest":
				cur = clarityCursor{contest: attr(el, "text"), inContest: true}
			case "Choice":
				if cur.inContest {
					cur.choice, cur.inChoice = attr(el, "text"), true
				}
			case "VoteType":
				if cur.inChoice {
					cur.voteType, cur.inType = attr(el, "name"), true
				}
			case "County":
				if !cur.inType {
					continue
				}
				votes, ok := lookupAttr(el, "votes")
				if !ok {
					line, _ := dec.InputPos()
					return nil, fmt.Errorf("%w: line %d: County %q has no votes attribute",
						ports.ErrMalformedInput, line, attr(el, "name"))
				}
				rows = append(rows, domain.Mapping{
					application.ClarityContest:  domain.Scalar(cur.contest),
					application.ClarityChoice:   domain.Scalar(cur.choice),
					application.ClarityVoteType: domain.Scalar(cur.voteType),
					application.ClarityCounty:   domain.Scalar(attr(el, "name")),
					application.ClarityVotes:    domain.Scalar(votes),
				})
			}

		case xml.EndElement:
			switch el.Name.Local {
			case "Contest":
				cur = clarityCursor{}
			case "Choice":
				cur.choice, cur.inChoice = "", false
				cur.voteType, cur.inType = "", false
			case "VoteType":
				cur.voteType, cur.inType = "", false
			}
		}
	}

	if rows == nil {
		rows = domain.Sequence{}
	}
	return rows, nil
}

func lookupAttr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func attr(el xml.StartElement, name string) string {
	v, _ := lookupAttr(el, name)
	return v
}
