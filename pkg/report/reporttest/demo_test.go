package reporttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/report"
)

func TestNewDemoReport(t *testing.T) {
	r := NewDemoReport()
	ctx := context.Background()

	pages, err := r.GetPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, len(DemoPages))

	active, ok := report.ActivePage(pages)
	require.True(t, ok)
	assert.Equal(t, "Executive Summary", active.DisplayName())
	assert.Equal(t, 3, r.Page(0).VisualCount())

	card := r.Page(0).Visual("ReportSection1_visual1")
	require.NotNil(t, card)
	assert.Equal(t, "Total Sales", card.Property("title", "titleText"))
	assert.Len(t, card.Fields("Fields"), 1)
}

func TestNewDemoHost_LoadsOnEmbed(t *testing.T) {
	host := NewDemoHost()

	r, err := host.Embed(context.Background(), report.EmbedOptions{ID: "demo"})
	require.NoError(t, err)
	require.NotNil(t, r)

	event := <-host.Events()
	assert.Equal(t, report.EventLoaded, event.Type)
	assert.Equal(t, "demo", host.EmbedOptions().ID)
}
