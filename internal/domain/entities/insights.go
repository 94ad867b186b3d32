package entities

// ScreenDwell is the total dwell accumulated on one screen across sessions.
type ScreenDwell struct {
	ScreenName string `json:"screenName"`
	TotalMs    int64  `json:"totalMs"`
	VisitCount int    `json:"visitCount"`
}

// ScreenClicks is the total click count on one screen across sessions.
type ScreenClicks struct {
	ScreenName string `json:"screenName"`
	Clicks     int    `json:"clicks"`
}

// FlowEdge counts how often users transitioned from one screen to another.
type FlowEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// ScrollDepth is the average maximum scroll fraction reached on one screen.
// Only screens with at least one scrolling visit are reported.
type ScrollDepth struct {
	ScreenName string  `json:"screenName"`
	AvgDepth   float64 `json:"avgDepth"`
	Visits     int     `json:"visits"`
}

// EngagementMetrics summarizes cross-session behavior. Sessions without any
// visit still count toward the denominators.
type EngagementMetrics struct {
	SessionCount     int     `json:"sessionCount"`
	AvgSessionMs     float64 `json:"avgSessionMs"`
	BounceRate       float64 `json:"bounceRate"`
	AvgClicks        float64 `json:"avgClicks"`
	AvgScreensPerRun float64 `json:"avgScreensPerRun"`
}

// FunnelStep is the milestone-presence conversion for one funnel screen.
type FunnelStep struct {
	ScreenName string  `json:"screenName"`
	Sessions   int     `json:"sessions"`
	Conversion float64 `json:"conversion"`
}

// InsightsReport bundles every dashboard aggregation over one fetched
// session set.
type InsightsReport struct {
	SessionCount int               `json:"sessionCount"`
	TopDwell     []ScreenDwell     `json:"topDwell"`
	ScreenClicks []ScreenClicks    `json:"screenClicks"`
	TopFlows     []FlowEdge        `json:"topFlows"`
	ScrollDepths []ScrollDepth     `json:"scrollDepths"`
	Engagement   EngagementMetrics `json:"engagement"`

	// MostConfusingScreen is the screen with the single highest total
	// dwell. This is a heuristic proxy for user difficulty; a long dwell
	// may equally mean a legitimately content-heavy screen.
	MostConfusingScreen string `json:"mostConfusingScreen,omitempty"`

	Funnel []FunnelStep `json:"funnel"`
}

// HeatmapCell is one spatial bucket of click intensity for a screen.
type HeatmapCell struct {
	GridX     int `json:"gridX"`
	GridY     int `json:"gridY"`
	Intensity int `json:"intensity"`
}

// ReplayPoint is a pixel coordinate on the replay surface.
type ReplayPoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

// ReplayFrame is the render plan for replaying one screen visit: a cursor
// polyline through the move events and one marker per click, both scaled to
// the target surface's pixel dimensions.
type ReplayFrame struct {
	ScreenName string        `json:"screenName"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Path       []ReplayPoint `json:"path"`
	Clicks     []ReplayPoint `json:"clicks"`
}
