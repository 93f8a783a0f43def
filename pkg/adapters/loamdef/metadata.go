package loamdef

// StateMetadata represents the frontmatter of a chart document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type StateMetadata struct {
	ID      int               `json:"id" mapstructure:"id"`
	Name    string            `json:"name" mapstructure:"name"`
	Parent  string            `json:"parent" mapstructure:"parent"`
	Initial bool              `json:"initial" mapstructure:"initial"`
	On      map[string]string `json:"on" mapstructure:"on"`
	Meta    map[string]any    `json:"meta" mapstructure:"meta"`

	// Chart marks a manifest document. A manifest names the chart and
	// declares its event table; it is not a state.
	Chart  string         `json:"chart" mapstructure:"chart"`
	Events map[string]int `json:"events" mapstructure:"events"`
}
