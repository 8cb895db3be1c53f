package export

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
)

// requiredOrder fixes the report order of failing fields.
var requiredOrder = []string{"title", "excerpt", "published_at", "tags"}

// Validate enforces the metadata an article must carry before anything is
// published. The error matches both ErrInvalid and ErrMissingField.
func Validate(m content.ArticleMeta) error {
	title := strings.TrimSpace(m.Title)
	excerpt := strings.TrimSpace(m.Excerpt)
	tags := content.DedupeFold(m.Tags)

	err := validation.Errors{
		"title":        validation.Validate(title, validation.Required.Error("is required")),
		"excerpt":      validation.Validate(excerpt, validation.Required.Error("is required")),
		"published_at": validation.Validate(m.PublishedAt, validation.Required.Error("is required")),
		"tags":         validation.Validate(tags, validation.Required.Error("needs at least one tag")),
	}.Filter()
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	out := domainerr.ValidationError{Cause: domainerr.ErrMissingField}
	for _, field := range requiredOrder {
		if fe, ok := verrs[field]; ok {
			out.Add(field, fe.Error())
		}
	}
	return out
}
