// Package controller coordinates one embed session: it owns the session
// state, routes report events into it and runs commands against the report.
package controller

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

// Phase is the lifecycle stage of an embed session
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// Drawer is the side panel shown next to the report. Only one is open at a time.
type Drawer string

const (
	DrawerNone    Drawer = ""
	DrawerPages   Drawer = "pages"
	DrawerVisuals Drawer = "visuals"
	DrawerFilters Drawer = "filters"
)

// Valid reports whether d names a known drawer or none
func (d Drawer) Valid() bool {
	switch d {
	case DrawerNone, DrawerPages, DrawerVisuals, DrawerFilters:
		return true
	default:
		return false
	}
}

// State is a snapshot of an embed session
type State struct {
	Phase             Phase                  `json:"phase"`
	Loading           bool                   `json:"loading"`
	Error             string                 `json:"error,omitempty"`
	Pages             []models.PageInfo      `json:"pages"`
	CurrentPageIndex  int                    `json:"currentPageIndex"`
	EditingVisual     *visuals.EditingVisual `json:"editingVisual,omitempty"`
	BuilderOpen       bool                   `json:"isBuilderOpen"`
	VisualsRefreshKey int                    `json:"visualsRefreshKey"`
	ActiveDrawer      Drawer                 `json:"activeDrawer"`
	ShowSaveConfirm   bool                   `json:"showSaveConfirm"`
	Saving            bool                   `json:"isSaving"`
	LastActionError   string                 `json:"lastActionError,omitempty"`

	Report report.Report `json:"-"`
}

// InitialState is the state of a session that has not started embedding
func InitialState() State {
	return State{
		Phase:   PhaseIdle,
		Loading: true,
		Pages:   []models.PageInfo{},
	}
}

// CurrentPage returns the page at CurrentPageIndex
func (s State) CurrentPage() (models.PageInfo, bool) {
	if s.CurrentPageIndex < 0 || s.CurrentPageIndex >= len(s.Pages) {
		return models.PageInfo{}, false
	}
	return s.Pages[s.CurrentPageIndex], true
}

// CanGoPrevious reports whether a page precedes the current one
func (s State) CanGoPrevious() bool {
	return s.CurrentPageIndex > 0
}

// CanGoNext reports whether a page follows the current one
func (s State) CanGoNext() bool {
	return s.CurrentPageIndex < len(s.Pages)-1
}

// PageIndex returns the position of the named page, or -1
func (s State) PageIndex(name string) int {
	for i, page := range s.Pages {
		if page.Name == name {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	s.Pages = append([]models.PageInfo{}, s.Pages...)
	return s
}
