// Package prompt carries the human decisions the import pipeline may need:
// choosing which JSON keys hold article fields, and reviewing extracted PDF
// text. A Resolver blocks until an answer or a cancellation arrives.
package prompt

import (
	"context"
	"fmt"

	domainerr "inkpress/internal/domain/errors"
)

// MappingRequest asks which source key feeds each article field.
type MappingRequest struct {
	FileName string `json:"fileName"`
	// Keys lists every top-level key of the source object.
	Keys []string `json:"keys"`
	// Fields lists the article fields that may be mapped, in display order.
	Fields []string `json:"fields"`
	// Required lists the fields that must be mapped.
	Required []string `json:"required"`
	// Suggested holds the automatic guesses, field -> key.
	Suggested Mapping `json:"suggested"`
}

// Mapping is field -> source key.
type Mapping map[string]string

// ReviewRequest hands extracted PDF text to a person for correction.
type ReviewRequest struct {
	FileName  string `json:"fileName"`
	Text      string `json:"text"`
	PageCount int    `json:"pageCount"`
}

type Resolver interface {
	ResolveMapping(ctx context.Context, req MappingRequest) (Mapping, error)
	ReviewText(ctx context.Context, req ReviewRequest) (string, error)
}

// Cancelled wraps the shared cancellation sentinel with a reason.
func Cancelled(reason string) error {
	return fmt.Errorf("%w: %s", domainerr.ErrCancelled, reason)
}

// Auto accepts every suggestion unchanged. A mapping with a required field
// left unresolved is cancelled since nobody is there to answer.
type Auto struct{}

func (Auto) ResolveMapping(_ context.Context, req MappingRequest) (Mapping, error) {
	for _, field := range req.Required {
		if req.Suggested[field] == "" {
			return nil, Cancelled("no interactive resolver to map " + field)
		}
	}
	return cloneMapping(req.Suggested), nil
}

func (Auto) ReviewText(_ context.Context, req ReviewRequest) (string, error) {
	return req.Text, nil
}

// Scripted answers with fixed callbacks and records what it was asked.
type Scripted struct {
	Mapping func(MappingRequest) (Mapping, error)
	Review  func(ReviewRequest) (string, error)

	MappingRequests []MappingRequest
	ReviewRequests  []ReviewRequest
}

func (s *Scripted) ResolveMapping(ctx context.Context, req MappingRequest) (Mapping, error) {
	s.MappingRequests = append(s.MappingRequests, req)
	if err := ctx.Err(); err != nil {
		return nil, Cancelled(err.Error())
	}
	if s.Mapping == nil {
		return nil, Cancelled("no scripted mapping")
	}
	return s.Mapping(req)
}

func (s *Scripted) ReviewText(ctx context.Context, req ReviewRequest) (string, error) {
	s.ReviewRequests = append(s.ReviewRequests, req)
	if err := ctx.Err(); err != nil {
		return "", Cancelled(err.Error())
	}
	if s.Review == nil {
		return req.Text, nil
	}
	return s.Review(req)
}

func cloneMapping(m Mapping) Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
