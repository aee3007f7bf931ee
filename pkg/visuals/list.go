package visuals

import (
	"context"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/retry"
)

// ListTimeout bounds each SDK query made by ListVisuals
const ListTimeout = 5 * time.Second

// ListVisuals summarizes the visuals on the report's active page. Untitled
// visuals are titled with their type label. No active page yields an empty list.
func ListVisuals(ctx context.Context, r report.Report, timeout time.Duration) ([]models.VisualSummary, error) {
	if timeout <= 0 {
		timeout = ListTimeout
	}

	pages, err := retry.WithTimeout(ctx, timeout, "Failed to get pages", r.GetPages)
	if err != nil {
		return nil, err
	}

	page, ok := report.ActivePage(pages)
	if !ok {
		return []models.VisualSummary{}, nil
	}

	pageVisuals, err := retry.WithTimeout(ctx, timeout, "Failed to get visuals", page.GetVisuals)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.VisualSummary, 0, len(pageVisuals))
	for _, v := range pageVisuals {
		label := TypeLabel(v.Type())
		title := v.Title()
		if title == "" {
			title = label
		}
		summaries = append(summaries, models.VisualSummary{
			Name:   v.Name(),
			Type:   v.Type(),
			Title:  title,
			Label:  label,
			Layout: LayoutOf(v.Layout()),
		})
	}
	return summaries, nil
}
