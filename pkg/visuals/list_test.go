package visuals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report/reporttest"
)

func TestListVisuals(t *testing.T) {
	ctx := context.Background()
	r := reporttest.NewReport("Overview", "Detail")
	r.Page(1).AddVisual(TypeCard, "Total Sales", &models.VisualLayout{X: 5, Y: 5, Width: 200, Height: 100})
	r.Page(1).AddVisual(TypeTable, "", nil)
	r.Activate(1)

	got, err := ListVisuals(ctx, r, time.Second)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.VisualSummary{
		Name:   "ReportSection2_visual1",
		Type:   TypeCard,
		Title:  "Total Sales",
		Label:  "Card",
		Layout: models.VisualLayout{X: 5, Y: 5, Width: 200, Height: 100},
	}, got[0])
	assert.Equal(t, "Table", got[1].Title)
	assert.Equal(t, DefaultLayout, got[1].Layout)
}

func TestListVisuals_NoActivePage(t *testing.T) {
	r := reporttest.NewReport()
	got, err := ListVisuals(context.Background(), r, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListVisuals_Error(t *testing.T) {
	r := reporttest.NewReport("Overview")
	r.Recorder().Fail("page.getVisuals", errors.New("boom"))
	_, err := ListVisuals(context.Background(), r, time.Second)
	assert.EqualError(t, err, "boom")
}
