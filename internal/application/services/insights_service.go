package services

import (
	"context"
	"math"
	"sort"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/domain/repositories"
	"github.com/movaride/behavior-analytics/internal/infrastructure/observability"
	"github.com/movaride/behavior-analytics/pkg/config"
)

// InsightsService computes the dashboard aggregations over the most recent
// session window. Every aggregation is a pure function of the fetched set;
// the service only adds the fetch and the fail-open policy: a read failure
// degrades to an empty report, never an error surfaced to the dashboard.
type InsightsService struct {
	repo repositories.SessionRepository
	cfg  config.TrackingConfig
}

// NewInsightsService creates a new insights service
func NewInsightsService(repo repositories.SessionRepository, cfg config.TrackingConfig) *InsightsService {
	return &InsightsService{
		repo: repo,
		cfg:  cfg,
	}
}

// Report fetches the recent window and computes every aggregation.
func (s *InsightsService) Report(ctx context.Context) *entities.InsightsReport {
	sessions, err := s.repo.GetRecent(ctx, s.cfg.RecentSessionLimit)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to load sessions, serving empty report")
		sessions = nil
	}

	dwell := TotalDwellByScreen(sessions, s.cfg.DwellTopK)
	return &entities.InsightsReport{
		SessionCount:        len(sessions),
		TopDwell:            dwell,
		ScreenClicks:        ClicksByScreen(sessions),
		TopFlows:            FlowEdges(sessions, s.cfg.FlowTopK),
		ScrollDepths:        ScrollDepths(sessions),
		Engagement:          Engagement(sessions),
		MostConfusingScreen: MostConfusingScreen(sessions),
		Funnel:              FunnelConversion(sessions, s.cfg.FunnelMilestones),
	}
}

// Funnel computes just the funnel slice for the dedicated endpoint.
func (s *InsightsService) Funnel(ctx context.Context) []entities.FunnelStep {
	sessions, err := s.repo.GetRecent(ctx, s.cfg.RecentSessionLimit)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to load sessions, serving empty funnel")
		sessions = nil
	}
	return FunnelConversion(sessions, s.cfg.FunnelMilestones)
}

// validEvent filters events defensively at every consumption point. Stored
// records are never trusted: click and move coordinates must be finite
// fractions, scroll depth likewise.
func validEvent(e entities.InputEvent) bool {
	if math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsInf(e.X, 0) || math.IsInf(e.Y, 0) {
		return false
	}
	switch e.Type {
	case entities.EventClick, entities.EventMove:
		return e.X >= 0 && e.X <= 1 && e.Y >= 0 && e.Y <= 1
	case entities.EventScroll:
		return e.Y >= 0 && e.Y <= 1
	default:
		return false
	}
}

// TotalDwellByScreen sums dwell per screen name across all sessions and
// returns the top K screens by total dwell descending.
func TotalDwellByScreen(sessions []*entities.Session, topK int) []entities.ScreenDwell {
	totals := make(map[string]*entities.ScreenDwell)
	for _, session := range sessions {
		for i := range session.ScreenFlow {
			visit := &session.ScreenFlow[i]
			entry, ok := totals[visit.ScreenName]
			if !ok {
				entry = &entities.ScreenDwell{ScreenName: visit.ScreenName}
				totals[visit.ScreenName] = entry
			}
			entry.TotalMs += visit.TimeSpent
			entry.VisitCount++
		}
	}

	ranked := make([]entities.ScreenDwell, 0, len(totals))
	for _, entry := range totals {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalMs != ranked[j].TotalMs {
			return ranked[i].TotalMs > ranked[j].TotalMs
		}
		return ranked[i].ScreenName < ranked[j].ScreenName
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// ClicksByScreen sums click events per screen name across all sessions.
func ClicksByScreen(sessions []*entities.Session) []entities.ScreenClicks {
	totals := make(map[string]int)
	for _, session := range sessions {
		for i := range session.ScreenFlow {
			visit := &session.ScreenFlow[i]
			for _, e := range visit.Events {
				if e.Type == entities.EventClick && validEvent(e) {
					totals[visit.ScreenName]++
				}
			}
		}
	}

	ranked := make([]entities.ScreenClicks, 0, len(totals))
	for name, clicks := range totals {
		ranked = append(ranked, entities.ScreenClicks{ScreenName: name, Clicks: clicks})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Clicks != ranked[j].Clicks {
			return ranked[i].Clicks > ranked[j].Clicks
		}
		return ranked[i].ScreenName < ranked[j].ScreenName
	})
	return ranked
}

// FlowEdges counts screen-to-screen transitions over adjacent visit pairs in
// visit order, without deduplicating repeated names, and keeps the top K
// edges by frequency.
func FlowEdges(sessions []*entities.Session, topK int) []entities.FlowEdge {
	type key struct{ from, to string }
	counts := make(map[key]int)
	for _, session := range sessions {
		for i := 0; i+1 < len(session.ScreenFlow); i++ {
			k := key{
				from: session.ScreenFlow[i].ScreenName,
				to:   session.ScreenFlow[i+1].ScreenName,
			}
			counts[k]++
		}
	}

	ranked := make([]entities.FlowEdge, 0, len(counts))
	for k, count := range counts {
		ranked = append(ranked, entities.FlowEdge{From: k.from, To: k.to, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if ranked[i].From != ranked[j].From {
			return ranked[i].From < ranked[j].From
		}
		return ranked[i].To < ranked[j].To
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// ScrollDepths averages, per screen, the maximum scroll fraction reached in
// each visit that scrolled at all. Screens with no scrolling visit are
// absent from the result.
func ScrollDepths(sessions []*entities.Session) []entities.ScrollDepth {
	sums := make(map[string]float64)
	visits := make(map[string]int)
	for _, session := range sessions {
		for i := range session.ScreenFlow {
			visit := &session.ScreenFlow[i]
			maxDepth := -1.0
			for _, e := range visit.Events {
				if e.Type == entities.EventScroll && validEvent(e) && e.Y > maxDepth {
					maxDepth = e.Y
				}
			}
			if maxDepth >= 0 {
				sums[visit.ScreenName] += maxDepth
				visits[visit.ScreenName]++
			}
		}
	}

	ranked := make([]entities.ScrollDepth, 0, len(sums))
	for name, sum := range sums {
		ranked = append(ranked, entities.ScrollDepth{
			ScreenName: name,
			AvgDepth:   sum / float64(visits[name]),
			Visits:     visits[name],
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvgDepth != ranked[j].AvgDepth {
			return ranked[i].AvgDepth > ranked[j].AvgDepth
		}
		return ranked[i].ScreenName < ranked[j].ScreenName
	})
	return ranked
}

// Engagement computes cross-session averages. Sessions with zero visits
// still count toward every denominator.
func Engagement(sessions []*entities.Session) entities.EngagementMetrics {
	n := len(sessions)
	if n == 0 {
		return entities.EngagementMetrics{}
	}

	var totalDwell int64
	var totalClicks, totalVisits, bounces int
	for _, session := range sessions {
		totalDwell += session.TotalDwell()
		totalClicks += session.TotalClicks()
		totalVisits += len(session.ScreenFlow)
		if len(session.ScreenFlow) == 1 {
			bounces++
		}
	}

	return entities.EngagementMetrics{
		SessionCount:     n,
		AvgSessionMs:     float64(totalDwell) / float64(n),
		BounceRate:       float64(bounces) / float64(n),
		AvgClicks:        float64(totalClicks) / float64(n),
		AvgScreensPerRun: float64(totalVisits) / float64(n),
	}
}

// MostConfusingScreen returns the screen with the single highest total
// dwell. It is a heuristic proxy for user difficulty, not a verdict: a
// content-heavy screen earns the same label as a genuinely confusing one.
func MostConfusingScreen(sessions []*entities.Session) string {
	ranked := TotalDwellByScreen(sessions, 1)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].ScreenName
}

// FunnelConversion reports, per milestone, the fraction of sessions with at
// least one visit to that screen. The test is presence only; milestone order
// inside a session does not matter.
func FunnelConversion(sessions []*entities.Session, milestones []string) []entities.FunnelStep {
	steps := make([]entities.FunnelStep, 0, len(milestones))
	total := len(sessions)
	for _, milestone := range milestones {
		hits := 0
		for _, session := range sessions {
			if session.VisitedScreen(milestone) {
				hits++
			}
		}
		step := entities.FunnelStep{ScreenName: milestone, Sessions: hits}
		if total > 0 {
			step.Conversion = float64(hits) / float64(total)
		}
		steps = append(steps, step)
	}
	return steps
}
