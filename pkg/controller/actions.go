package controller

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
	"github.com/Ramsey-B/fern/pkg/visuals"
)

// Action is a state transition applied by Reduce
type Action interface {
	action()
}

type (
	SetReport               struct{ Report report.Report }
	SetLoading              struct{ Loading bool }
	SetError                struct{ Message string }
	SetPages                struct{ Pages []models.PageInfo }
	SetCurrentPageIndex     struct{ Index int }
	SetEditingVisual        struct{ Visual *visuals.EditingVisual }
	SetBuilderOpen          struct{ Open bool }
	IncrementVisualsRefresh struct{}
	SetActiveDrawer         struct{ Drawer Drawer }
	SetShowSaveConfirm      struct{ Show bool }
	SetSaving               struct{ Saving bool }
	CloseBuilder            struct{}
	SetActionError          struct{ Message string }
	Reset                   struct{}
)

func (SetReport) action()               {}
func (SetLoading) action()              {}
func (SetError) action()                {}
func (SetPages) action()                {}
func (SetCurrentPageIndex) action()     {}
func (SetEditingVisual) action()        {}
func (SetBuilderOpen) action()          {}
func (IncrementVisualsRefresh) action() {}
func (SetActiveDrawer) action()         {}
func (SetShowSaveConfirm) action()      {}
func (SetSaving) action()               {}
func (CloseBuilder) action()            {}
func (SetActionError) action()          {}
func (Reset) action()                   {}

// Reduce returns the state after applying a. It never mutates s.
//
// The page index always addresses an entry of Pages, or is 0 when Pages is
// empty. Closing the builder drops the visual being edited.
func Reduce(s State, a Action) State {
	s = s.clone()

	switch a := a.(type) {
	case SetReport:
		s.Report = a.Report
	case SetLoading:
		s.Loading = a.Loading
		switch {
		case a.Loading:
			s.Phase = PhaseLoading
		case s.Phase != PhaseFailed:
			s.Phase = PhaseReady
		}
	case SetError:
		s.Error = a.Message
		if a.Message != "" {
			s.Phase = PhaseFailed
		}
	case SetPages:
		s.Pages = append([]models.PageInfo{}, a.Pages...)
		if s.CurrentPageIndex >= len(s.Pages) || s.CurrentPageIndex < 0 {
			s.CurrentPageIndex = 0
		}
	case SetCurrentPageIndex:
		if a.Index >= 0 && a.Index < len(s.Pages) {
			s.CurrentPageIndex = a.Index
		}
	case SetEditingVisual:
		s.EditingVisual = a.Visual
	case SetBuilderOpen:
		s.BuilderOpen = a.Open
		if !a.Open {
			s.EditingVisual = nil
		}
	case IncrementVisualsRefresh:
		s.VisualsRefreshKey++
	case SetActiveDrawer:
		if a.Drawer.Valid() {
			s.ActiveDrawer = a.Drawer
		}
	case SetShowSaveConfirm:
		s.ShowSaveConfirm = a.Show
	case SetSaving:
		s.Saving = a.Saving
	case CloseBuilder:
		s.BuilderOpen = false
		s.EditingVisual = nil
	case SetActionError:
		s.LastActionError = a.Message
	case Reset:
		return InitialState()
	}

	return s
}
