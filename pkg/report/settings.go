package report

import "github.com/Ramsey-B/fern/pkg/models"

// Vendor enum values used in the embed configuration
const (
	TokenTypeEmbed          = 1
	PermissionsAll          = 7
	ViewModeView            = 0
	LayoutTypeMaster        = 0
	BackgroundTransparent   = 1
	MenuLocationBottom      = 0
	MenuLocationTop         = 1
	DisplayStateModeVisible = 0
)

// EmbedOptions is the vendor embed configuration handed to the host page
type EmbedOptions struct {
	Type        string   `json:"type"`
	TokenType   int      `json:"tokenType"`
	AccessToken string   `json:"accessToken"`
	EmbedURL    string   `json:"embedUrl"`
	ID          string   `json:"id"`
	Permissions int      `json:"permissions"`
	ViewMode    int      `json:"viewMode"`
	Settings    Settings `json:"settings"`
}

type Settings struct {
	LayoutType int         `json:"layoutType"`
	Panes      Panes       `json:"panes"`
	Bars       Bars        `json:"bars"`
	Background int         `json:"background"`
	Extensions []Extension `json:"extensions"`
}

type Panes struct {
	Filters        PaneState `json:"filters"`
	PageNavigation PaneState `json:"pageNavigation"`
	Fields         PaneState `json:"fields"`
	Visualizations PaneState `json:"visualizations"`
}

// PaneState sets either visibility or expansion of a pane
type PaneState struct {
	Visible  *bool `json:"visible,omitempty"`
	Expanded *bool `json:"expanded,omitempty"`
}

type Bars struct {
	ActionBar PaneState `json:"actionBar"`
}

type Extension struct {
	Command ExtensionCommand `json:"command"`
}

type ExtensionCommand struct {
	Name   string          `json:"name"`
	Title  string          `json:"title"`
	Extend ExtensionTarget `json:"extend"`
}

type ExtensionTarget struct {
	VisualOptionsMenu *MenuEntry `json:"visualOptionsMenu,omitempty"`
	VisualContextMenu *MenuEntry `json:"visualContextMenu,omitempty"`
}

type MenuEntry struct {
	Title        string `json:"title"`
	MenuLocation int    `json:"menuLocation"`
}

// NewEmbedOptions builds the embed configuration for an issued embed session:
// view mode with full permissions, filter and page panes hidden, the action
// bar shown, a transparent background, and the edit/delete visual commands.
func NewEmbedOptions(cfg models.EmbedConfig) EmbedOptions {
	return EmbedOptions{
		Type:        "report",
		TokenType:   TokenTypeEmbed,
		AccessToken: cfg.EmbedToken,
		EmbedURL:    cfg.EmbedURL,
		ID:          cfg.ReportID,
		Permissions: PermissionsAll,
		ViewMode:    ViewModeView,
		Settings: Settings{
			LayoutType: LayoutTypeMaster,
			Panes: Panes{
				Filters:        PaneState{Visible: boolPtr(false)},
				PageNavigation: PaneState{Visible: boolPtr(false)},
				Fields:         PaneState{Expanded: boolPtr(false)},
				Visualizations: PaneState{Expanded: boolPtr(false)},
			},
			Bars:       Bars{ActionBar: PaneState{Visible: boolPtr(true)}},
			Background: BackgroundTransparent,
			Extensions: DefaultExtensions(),
		},
	}
}

// DefaultExtensions returns the context menu commands routed back to the controller
func DefaultExtensions() []Extension {
	return []Extension{
		menuExtension(CommandEditVisual, "Edit Visual", MenuLocationTop),
		menuExtension(CommandDeleteVisual, "Delete Visual", MenuLocationBottom),
	}
}

func menuExtension(name, title string, location int) Extension {
	return Extension{
		Command: ExtensionCommand{
			Name:  name,
			Title: title,
			Extend: ExtensionTarget{
				VisualOptionsMenu: &MenuEntry{Title: title, MenuLocation: location},
				VisualContextMenu: &MenuEntry{Title: title, MenuLocation: location},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
