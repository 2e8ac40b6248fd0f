// Package dashboard aggregates usage logs and tickets into the operator views.
// It reads both stores and never writes usage logs. Views with no real data
// fall back to the placeholder provider and say so.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/catalog"
	"github.com/psds-microservice/apihub-assistant/internal/errs"
	"github.com/psds-microservice/apihub-assistant/internal/model"
	"github.com/psds-microservice/apihub-assistant/internal/notifier"
	"github.com/psds-microservice/apihub-assistant/internal/store"
)

// Days is the length of every daily series.
const Days = 30

const (
	QuotaOK           = "ok"
	QuotaLow          = "low"
	QuotaExceeded     = "exceeded"
	QuotaUnconfigured = "unconfigured"

	ProgressOK      = "ok"
	ProgressWarning = "warning"
	ProgressReached = "reached"
)

type Point struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

type Series struct {
	API         string  `json:"api"`
	Points      []Point `json:"points"`
	Total       int     `json:"total"`
	Placeholder bool    `json:"placeholder"`
}

type UsageRow struct {
	API   string  `json:"api"`
	Calls int     `json:"calls"`
	Cost  float64 `json:"cost"`
}

type Summary struct {
	Usage       []UsageRow `json:"usage"`
	Daily       []Series   `json:"daily"`
	TotalCalls  int        `json:"total_calls"`
	TotalCost   float64    `json:"total_cost"`
	Placeholder bool       `json:"placeholder"`
}

type Quota struct {
	Daily     int    `json:"daily"`
	UsedToday int    `json:"used_today"`
	Remaining int    `json:"remaining"`
	Status    string `json:"status"`
}

type Progress struct {
	UsedToday   int     `json:"used_today"`
	Percent     float64 `json:"percent"`
	Level       string  `json:"level"`
	Placeholder bool    `json:"placeholder"`
}

type APIView struct {
	API       catalog.API `json:"api"`
	Daily     Series      `json:"daily"`
	Quota     Quota       `json:"quota"`
	Progress  *Progress   `json:"progress,omitempty"`
	RateLimit []Point     `json:"rate_limit"`
}

type TicketsView struct {
	Tickets []model.TicketView `json:"tickets"`
	Count   int                `json:"count"`
}

// TicketLister is the read side of the ticket service the dashboard needs.
type TicketLister interface {
	ListOpen(ctx context.Context) ([]model.TicketView, error)
}

type Service struct {
	usage       store.UsageLogStore
	tickets     TicketLister
	catalog     *catalog.Catalog
	placeholder *PlaceholderProvider
	warnings    *notifier.Warnings
	now         func() time.Time
}

func NewService(usage store.UsageLogStore, tickets TicketLister, cat *catalog.Catalog, placeholder *PlaceholderProvider, warnings *notifier.Warnings) *Service {
	if placeholder == nil {
		placeholder = NewPlaceholderProvider(time.Now().UnixNano())
	}
	return &Service{
		usage:       usage,
		tickets:     tickets,
		catalog:     cat,
		placeholder: placeholder,
		warnings:    warnings,
		now:         time.Now,
	}
}

// Summary returns per-API totals and the daily series of every API. An empty
// usage collection yields a placeholder summary instead of an error.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	logs, err := s.usage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: list usage logs: %w", err)
	}
	days := lastDays(s.now(), Days)

	if len(logs) == 0 {
		apis := s.catalog.APIs()
		out := &Summary{Usage: s.placeholder.Usage(apis), Placeholder: true}
		for _, a := range apis {
			out.Daily = append(out.Daily, s.placeholderSeries(a, days))
		}
		out.finish()
		return out, nil
	}

	calls := make(map[string]int)
	for _, l := range logs {
		calls[l.API]++
	}
	out := &Summary{}
	for name, n := range calls {
		out.Usage = append(out.Usage, UsageRow{API: name, Calls: n, Cost: roundTo(float64(n)*s.catalog.CostPerCall(name), 3)})
		out.Daily = append(out.Daily, dailySeries(name, logs, days))
	}
	sort.Slice(out.Usage, func(i, j int) bool {
		if out.Usage[i].Calls != out.Usage[j].Calls {
			return out.Usage[i].Calls > out.Usage[j].Calls
		}
		return out.Usage[i].API < out.Usage[j].API
	})
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].API < out.Daily[j].API })
	out.finish()
	return out, nil
}

func (s *Summary) finish() {
	for _, r := range s.Usage {
		s.TotalCalls += r.Calls
		s.TotalCost += r.Cost
	}
	s.TotalCost = roundTo(s.TotalCost, 3)
}

// API returns the detail view of one catalog API.
func (s *Service) API(ctx context.Context, name string) (*APIView, error) {
	api, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrAPINotFound, name)
	}
	logs, err := s.usage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: list usage logs: %w", err)
	}
	now := s.now()
	days := lastDays(now, Days)

	v := &APIView{API: api}
	if hasAPI(logs, name) {
		v.Daily = dailySeries(name, logs, days)
	} else {
		v.Daily = s.placeholderSeries(api, days)
	}

	used := usedToday(logs, name, now)
	v.Quota = QuotaStatus(api.QuotaDaily, used)
	if api.QuotaDaily > 0 {
		p := Progress{UsedToday: used}
		if used == 0 {
			p.UsedToday = s.placeholder.Today(api.QuotaDaily)
			p.Placeholder = true
		}
		p.Percent, p.Level = ProgressLevel(p.UsedToday, api.QuotaDaily)
		v.Progress = &p
	}

	v.RateLimit = make([]Point, len(days))
	for i, d := range days {
		v.RateLimit[i] = Point{Date: d, Count: api.RateLimitPerSecond}
	}
	return v, nil
}

// OpenTickets lists open tickets, longest-waiting first.
func (s *Service) OpenTickets(ctx context.Context) (*TicketsView, error) {
	tickets, err := s.tickets.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []model.TicketView{}
	}
	sort.SliceStable(tickets, func(i, j int) bool { return tickets[i].HoursOpen > tickets[j].HoursOpen })
	return &TicketsView{Tickets: tickets, Count: len(tickets)}, nil
}

func (s *Service) Warnings() []notifier.Warning {
	if s.warnings == nil {
		return []notifier.Warning{}
	}
	return s.warnings.Recent()
}

func (s *Service) placeholderSeries(api catalog.API, days []time.Time) Series {
	points := s.placeholder.Daily(api, days)
	return Series{API: api.Name, Points: points, Total: total(points), Placeholder: true}
}

// QuotaStatus classifies today's usage against a daily quota.
func QuotaStatus(quota, used int) Quota {
	q := Quota{Daily: quota, UsedToday: used, Remaining: quota - used}
	switch {
	case quota <= 0:
		q.Status = QuotaUnconfigured
	case q.Remaining <= 0:
		q.Status = QuotaExceeded
	case float64(q.Remaining) < float64(quota)*0.2:
		q.Status = QuotaLow
	default:
		q.Status = QuotaOK
	}
	return q
}

// ProgressLevel returns the share of quota used, capped at 100, and its level.
func ProgressLevel(used, quota int) (float64, string) {
	if quota <= 0 {
		return 0, ProgressOK
	}
	pct := math.Min(float64(used)/float64(quota)*100, 100)
	switch {
	case pct >= 100:
		return pct, ProgressReached
	case pct >= 80:
		return pct, ProgressWarning
	default:
		return pct, ProgressOK
	}
}

// lastDays returns n UTC midnights ending with today.
func lastDays(now time.Time, n int) []time.Time {
	today := startOfDay(now)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = today.AddDate(0, 0, i-(n-1))
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dailySeries counts name's calls per day; days without calls are zero.
func dailySeries(name string, logs []model.UsageLog, days []time.Time) Series {
	index := make(map[time.Time]int, len(days))
	points := make([]Point, len(days))
	for i, d := range days {
		index[d] = i
		points[i] = Point{Date: d}
	}
	for _, l := range logs {
		if l.API != name {
			continue
		}
		if i, ok := index[startOfDay(l.Timestamp)]; ok {
			points[i].Count++
		}
	}
	return Series{API: name, Points: points, Total: total(points)}
}

func usedToday(logs []model.UsageLog, name string, now time.Time) int {
	today := startOfDay(now)
	n := 0
	for _, l := range logs {
		if l.API == name && !l.Timestamp.Before(today) {
			n++
		}
	}
	return n
}

func hasAPI(logs []model.UsageLog, name string) bool {
	for _, l := range logs {
		if l.API == name {
			return true
		}
	}
	return false
}

func total(points []Point) int {
	n := 0
	for _, p := range points {
		n += p.Count
	}
	return n
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
