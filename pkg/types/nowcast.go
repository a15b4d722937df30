package types

// Wire types for the BMKG nowcast REST API.
//
// GET /v1/nowcast returns the list of active warning codes; the detail
// endpoint wraps its payload in a "data" envelope which the client unwraps.

// NowcastListItem is one entry from GET /v1/nowcast.
type NowcastListItem struct {
	Code        string `json:"code"`
	Province    string `json:"province"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
	DetailURL   string `json:"detail_url"`
}

// NowcastList is the full response from GET /v1/nowcast.
type NowcastList struct {
	Data        []NowcastListItem `json:"data"`
	Meta        map[string]any    `json:"meta,omitempty"`
	Attribution string            `json:"attribution,omitempty"`
}

// WarningArea is one affected area with its optional polygon.
type WarningArea struct {
	Name    string      `json:"name"`
	Polygon [][]float64 `json:"polygon,omitempty"`
}

// Warning is a single parsed nowcast warning. Warnings are transient: they
// live for one poll cycle and are only persisted (as an Alert) when matched.
type Warning struct {
	Identifier     string        `json:"identifier,omitempty"`
	Event          string        `json:"event"`
	Severity       Severity      `json:"severity"`
	Urgency        string        `json:"urgency,omitempty"`
	Certainty      string        `json:"certainty,omitempty"`
	Effective      string        `json:"effective,omitempty"`
	Expires        string        `json:"expires,omitempty"`
	Headline       string        `json:"headline,omitempty"`
	Description    string        `json:"description,omitempty"`
	Sender         string        `json:"sender,omitempty"`
	InfographicURL string        `json:"infographic_url,omitempty"`
	Areas          []WarningArea `json:"areas,omitempty"`
	IsExpired      bool          `json:"is_expired,omitempty"`
}

// NowcastDetail is the unwrapped data field of GET /v1/nowcast/{code}.
type NowcastDetail struct {
	Province string    `json:"province"`
	Warnings []Warning `json:"warnings"`
}
