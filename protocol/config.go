package protocol

// CurrentConfigVersion is the version this binary writes and prefers.
const CurrentConfigVersion = 2

// DockMode is which side of the window the selected-variables panel is
// docked to.
type DockMode string

const (
	DockRight  DockMode = "right"
	DockBottom DockMode = "bottom"
)

// Theme is the UI color theme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// PanelSize is a persisted docked-panel size.
type PanelSize struct {
	PanelW uint32 `json:"panelW"`
	PanelH uint32 `json:"panelH"`
}

// AppInfo is the top-level version stamp.
type AppInfo struct {
	Version int `json:"version"`
}

// UIConfig is user-facing chrome preferences.
type UIConfig struct {
	Theme          Theme `json:"theme"`
	ToastDismissMs uint32 `json:"toastDismissMs"`
}

// WorkspaceConfig is everything about the currently open session: which
// files, which variables, and the last timeline view.
type WorkspaceConfig struct {
	OpenedFiles               []string           `json:"openedFiles"`
	DockMode                  DockMode           `json:"dockMode"`
	ExpandedScopes            []string           `json:"expandedScopes"`
	SelectedScopeID           *string            `json:"selectedScopeId,omitempty"`
	DockedRight               PanelSize          `json:"dockedRight"`
	DockedBottom              PanelSize          `json:"dockedBottom"`
	VariablesSearchFilter     string             `json:"variablesSearchFilter"`
	SelectedVariables         []SelectedVariable `json:"selectedVariables"`
	TimelineCursorPositionNs  uint64             `json:"timelineCursorPositionNs"`
	TimelineZoomLevel         uint64             `json:"timelineZoomLevel"`
	TimelineVisibleRangeStart *uint64            `json:"timelineVisibleRangeStartNs,omitempty"`
	TimelineVisibleRangeEnd   *uint64            `json:"timelineVisibleRangeEndNs,omitempty"`
}

// AppConfig is the full persisted configuration (§6.2).
type AppConfig struct {
	App       AppInfo         `json:"app"`
	UI        UIConfig        `json:"ui"`
	Workspace WorkspaceConfig `json:"workspace"`
}

// DefaultAppConfig is used whenever no config file exists, or an unknown
// version forces a recreate.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		App: AppInfo{Version: CurrentConfigVersion},
		UI: UIConfig{
			Theme:          ThemeDark,
			ToastDismissMs: 4000,
		},
		Workspace: WorkspaceConfig{
			DockMode:      DockRight,
			DockedRight:   PanelSize{PanelW: 360, PanelH: 0},
			DockedBottom:  PanelSize{PanelW: 0, PanelH: 280},
			TimelineZoomLevel: 100,
		},
	}
}

// MigrationStrategyKind tags how a loaded config should be reconciled
// with CurrentConfigVersion.
type MigrationStrategyKind int

const (
	MigrationNone MigrationStrategyKind = iota
	MigrationUpgrade
	MigrationRecreate
)

// MigrationStrategy describes what config.Store's loader must do with a
// version found on disk.
type MigrationStrategy struct {
	Kind MigrationStrategyKind
	From int
	To   int
}

// PlanMigration decides the migration strategy for a loaded version.
// Unknown (future or negative) versions are recreated, never treated as
// a crash — per §6.2.
func PlanMigration(loadedVersion int) MigrationStrategy {
	switch {
	case loadedVersion == CurrentConfigVersion:
		return MigrationStrategy{Kind: MigrationNone}
	case loadedVersion >= 1 && loadedVersion < CurrentConfigVersion:
		return MigrationStrategy{Kind: MigrationUpgrade, From: loadedVersion, To: CurrentConfigVersion}
	default:
		return MigrationStrategy{Kind: MigrationRecreate}
	}
}
