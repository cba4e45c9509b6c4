package editors

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/schema"
	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"
)

// RichText stores sanitized HTML and displays it as plain text.
type RichText struct {
	policy *bluemonday.Policy
}

// NewRichText uses the bluemonday user generated content policy.
func NewRichText() *RichText {
	return &RichText{policy: bluemonday.UGCPolicy()}
}

// NewRichTextWithPolicy overrides the sanitizing policy.
func NewRichTextWithPolicy(policy *bluemonday.Policy) *RichText {
	if policy == nil {
		return NewRichText()
	}
	return &RichText{policy: policy}
}

func (r *RichText) Kind() string { return KindRichText }

func (r *RichText) ToDisplayString(_ context.Context, value content.Value, _ schema.Field) (string, error) {
	html, err := scalarText(KindRichText, value)
	if err != nil || strings.TrimSpace(html) == "" {
		return "", err
	}
	plain, err := html2text.FromString(html, html2text.Options{PrettyTables: true})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "richtext: convert to text")
	}
	return plain, nil
}

func (r *RichText) ToEditorModel(_ context.Context, value content.Value, _ schema.Field) (content.Value, error) {
	html, err := scalarText(KindRichText, value)
	if err != nil {
		return content.Null(), err
	}
	return content.String(html), nil
}

func (r *RichText) FromEditorModel(_ context.Context, data EditorData) (content.Value, error) {
	html, err := scalarText(KindRichText, data.Value)
	if err != nil {
		return content.Null(), err
	}
	cleaned := strings.TrimSpace(r.policy.Sanitize(html))
	if cleaned == "" {
		return content.Null(), nil
	}
	return content.String(cleaned), nil
}

func (r *RichText) Validators() []Validator {
	return []Validator{ValidatorFunc(maxChars)}
}
