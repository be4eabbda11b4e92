package protocol

// Client -> Server. First message on the observer WS connection; may be
// re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// EveryTicks thins the feed: 1 = every tick report.
	EveryTicks int `json:"every_ticks,omitempty"`
}

// HTTP response for GET /v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	Scenario        string      `json:"scenario"`
	Tick            uint64      `json:"tick"`
	State           string      `json:"state"`
	TickDurationMs  int         `json:"tick_duration_ms"`
	Catalogs        CatalogInfo `json:"catalogs"`
}

type CatalogInfo struct {
	ResourcePalette []string `json:"resource_palette"`
	ResourcesDigest string   `json:"resources_digest"`
	BuildingsDigest string   `json:"buildings_digest"`
	RolesDigest     string   `json:"roles_digest"`
}

// Server -> Client. Sent after each processed tick.
type TickReportMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Morale           float64 `json:"morale"`
	MoraleLabel      string  `json:"morale_label"`
	MoraleMultiplier float64 `json:"morale_multiplier"`

	Stock    map[string]float64 `json:"stock"`
	Capacity float64            `json:"capacity"`

	Alive        int     `json:"alive"`
	Working      int     `json:"working"`
	AvgHappiness float64 `json:"avg_happiness"`

	Produced  map[string]float64 `json:"produced"`
	Consumed  float64            `json:"consumed"`
	Shortfall float64            `json:"shortfall,omitempty"`
	Deaths    []string           `json:"deaths,omitempty"`

	Overflow bool    `json:"overflow"`
	Overage  float64 `json:"overage,omitempty"`

	Digest string `json:"digest"`
}

// Server -> Client. Sent once when the run reaches a terminal state.
type SummaryMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	State     string             `json:"state"`
	Ticks     int                `json:"ticks"`
	Survivors int                `json:"survivors"`
	Deaths    int                `json:"deaths"`
	Stock     map[string]float64 `json:"stock"`
}
