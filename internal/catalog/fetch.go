package catalog

import (
	"context"

	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/model"
)

// Store layout.
const (
	ToolsCollection = "ai-tools"
	overviewSummary = "overview/summary"
	pricingSub      = "pricing"
	reviewsSub      = "reviews"
)

// ToolPath returns the document path of a tool.
func ToolPath(toolID string) string { return docstore.Join(ToolsCollection, toolID) }

// SummaryPath returns the path of a tool's overview summary document.
func SummaryPath(toolID string) string { return docstore.Join(ToolsCollection, toolID, overviewSummary) }

// PricingPath returns the path of a tool's pricing sub-collection.
func PricingPath(toolID string) string { return docstore.Join(ToolsCollection, toolID, pricingSub) }

// ReviewsPath returns the path of a tool's reviews sub-collection.
func ReviewsPath(toolID string) string { return docstore.Join(ToolsCollection, toolID, reviewsSub) }

// result carries a sub-resource read and its error side by side so each
// caller applies its own default policy:
//
//	summary  -> "" long description, nil summary
//	pricing  -> empty plan list
//	reviews  -> no default, the error propagates
type result[T any] struct {
	Value T
	Err   error
}

// Or returns the value, or def when the read failed.
func (r result[T]) Or(def T) T {
	if r.Err != nil {
		return def
	}
	return r.Value
}

func fetchSummary(ctx context.Context, store docstore.Store, toolID string) result[*model.Summary] {
	doc, err := store.Get(ctx, SummaryPath(toolID))
	if err != nil || doc == nil {
		return result[*model.Summary]{Err: err}
	}
	var s model.Summary
	if err := docstore.Decode(*doc, &s); err != nil {
		return result[*model.Summary]{Err: err}
	}
	s.Fields = doc.Data
	return result[*model.Summary]{Value: &s}
}

func fetchPricing(ctx context.Context, store docstore.Store, toolID string) result[[]model.PricingPlan] {
	docs, err := store.List(ctx, PricingPath(toolID))
	if err != nil {
		return result[[]model.PricingPlan]{Err: err}
	}
	plans := make([]model.PricingPlan, 0, len(docs))
	for _, d := range docs {
		var p model.PricingPlan
		if err := docstore.Decode(d, &p); err != nil {
			return result[[]model.PricingPlan]{Err: err}
		}
		plans = append(plans, p)
	}
	return result[[]model.PricingPlan]{Value: plans}
}

func fetchReviews(ctx context.Context, store docstore.Store, toolID string) result[[]model.Review] {
	docs, err := store.List(ctx, ReviewsPath(toolID))
	if err != nil {
		return result[[]model.Review]{Err: err}
	}
	reviews := make([]model.Review, 0, len(docs))
	for _, d := range docs {
		var r model.Review
		if err := docstore.Decode(d, &r); err != nil {
			return result[[]model.Review]{Err: err}
		}
		r.ID = d.ID
		reviews = append(reviews, r)
	}
	return result[[]model.Review]{Value: reviews}
}

// decodeTool turns a tool document into a view model with its logo resolved.
func decodeTool(doc docstore.Document, logo model.LogoConfig) (model.Tool, error) {
	var t model.Tool
	if err := docstore.Decode(doc, &t); err != nil {
		return model.Tool{}, err
	}
	t.ID = doc.ID
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Categories == nil {
		t.Categories = []string{}
	}
	return t.WithLogo(logo), nil
}
