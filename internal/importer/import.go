package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/model"
)

// Result summarizes an import.
type Result struct {
	Added   int
	Skipped int // URL already in the catalog or earlier in the input
}

// Import writes tools into the catalog collection of store. A tool whose URL
// is already present is skipped. Long descriptions are written as the
// tool's summary document and pricing plans as its pricing sub-collection.
func Import(ctx context.Context, store docstore.Store, tools []model.Tool, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	docs, err := store.List(ctx, catalog.ToolsCollection)
	if err != nil {
		return Result{}, fmt.Errorf("list existing tools: %w", err)
	}
	existing := make([]model.Tool, 0, len(docs))
	for _, d := range docs {
		url, _ := d.Data["url"].(string)
		existing = append(existing, model.Tool{ID: d.ID, URL: url})
	}
	known := model.NewCatalog(existing)

	var res Result
	for _, t := range tools {
		if known.HasURL(t.URL) {
			logger.Debug("skipping duplicate", zap.String("url", t.URL))
			res.Skipped++
			continue
		}
		if err := writeTool(ctx, store, t); err != nil {
			return res, fmt.Errorf("write %s: %w", t.Name, err)
		}
		known.Tools = append(known.Tools, t)
		res.Added++
	}

	logger.Info("import finished", zap.Int("added", res.Added), zap.Int("skipped", res.Skipped))
	return res, nil
}

func writeTool(ctx context.Context, store docstore.Store, t model.Tool) error {
	if err := store.Set(ctx, catalog.ToolPath(t.ID), t.Document(), false); err != nil {
		return err
	}
	if t.LongDescription != "" {
		summary := map[string]any{"longDescription": t.LongDescription}
		if err := store.Set(ctx, catalog.SummaryPath(t.ID), summary, false); err != nil {
			return err
		}
	}
	for _, p := range t.Pricing {
		plan := map[string]any{"name": p.Name, "price": p.Price}
		if p.Billing != "" {
			plan["billing"] = p.Billing
		}
		if len(p.Features) > 0 {
			plan["features"] = p.Features
		}
		if err := store.Set(ctx, docstore.Join(catalog.PricingPath(t.ID), model.GenerateUUID()), plan, false); err != nil {
			return err
		}
	}
	return nil
}
