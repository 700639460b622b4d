package main

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

type Phase string

const (
	PhaseInitial Phase = "initial"
	PhaseRescope Phase = "rescope"
)

// Dashboard owns the current payload and the user's BAC selection for one
// record. It is not safe for concurrent use: the TUI mutates it only from
// its update loop. Overlapping re-fetches are not coordinated; whichever
// result is applied last wins.
type Dashboard struct {
	recordID string
	service  QueryService
	notifier Notifier
	nav      Navigator
	links    LinkConfig
	logger   zerolog.Logger

	data     *DashboardPayload
	version  ulid.ULID
	selected string
	state    State
	phase    Phase
}

func NewDashboard(recordID string, service QueryService, notifier Notifier, nav Navigator, links LinkConfig, logger zerolog.Logger) *Dashboard {
	return &Dashboard{
		recordID: recordID,
		service:  service,
		notifier: notifier,
		nav:      nav,
		links:    links,
		logger:   logger.With().Str("record_id", recordID).Logger(),
		state:    StateUninitialized,
	}
}

func (d *Dashboard) RecordID() string        { return d.recordID }
func (d *Dashboard) Data() *DashboardPayload { return d.data }
func (d *Dashboard) SelectedBAC() string     { return d.selected }
func (d *Dashboard) State() State            { return d.state }
func (d *Dashboard) Phase() Phase            { return d.phase }
func (d *Dashboard) Version() ulid.ULID      { return d.version }
func (d *Dashboard) Links() LinkConfig       { return d.links }
func (d *Dashboard) View() DashboardView     { return buildView(d.data, d.selected, d.links) }
func (d *Dashboard) HasData() bool           { return d.data != nil }
func (d *Dashboard) ScorecardLink() string   { return ScorecardLink(d.links.ScorecardBase, d.data) }
func (d *Dashboard) SummaryLink() string     { return SummaryLink(d.links.SummaryBase, d.data) }

// LoadInitial fetches the payload for the record and takes its selectedBAC
// as the current selection. On failure the previous state is left as is and
// an error notification is emitted; the error is returned for logging only.
func (d *Dashboard) LoadInitial(ctx context.Context) error {
	d.begin(PhaseInitial)
	p, err := d.service.InitialData(ctx, d.recordID)
	d.finishInitial(p, err)
	return err
}

// LoadForScope fetches the payload for bac and replaces the current one.
// The selection is not touched.
func (d *Dashboard) LoadForScope(ctx context.Context, bac string) error {
	d.begin(PhaseRescope)
	p, err := d.service.DataForBAC(ctx, d.recordID, bac)
	d.finishScoped(bac, p, err)
	return err
}

// SelectBAC records the user's choice. It does not fetch and does not check
// bac against the current options.
func (d *Dashboard) SelectBAC(bac string) {
	d.logger.Debug().Str("from", d.selected).Str("to", bac).Msg("bac selected")
	d.selected = bac
}

// Go re-fetches the dashboard for the current selection.
func (d *Dashboard) Go(ctx context.Context) error {
	return d.LoadForScope(ctx, d.selected)
}

func (d *Dashboard) OpenScorecard() string {
	return d.open("scorecard", d.ScorecardLink())
}

func (d *Dashboard) OpenSummary() string {
	return d.open("summary", d.SummaryLink())
}

func (d *Dashboard) open(name, url string) string {
	if d.nav == nil {
		return url
	}
	if err := d.nav.Open(url); err != nil {
		d.logger.Warn().Err(err).Str("link", name).Str("url", url).Msg("failed to open link")
	}
	return url
}

func (d *Dashboard) begin(phase Phase) {
	d.state = StateLoading
	d.phase = phase
	d.logger.Debug().Str("phase", string(phase)).Str("bac", d.selected).Msg("fetching dashboard")
}

func (d *Dashboard) finishInitial(p *DashboardPayload, err error) {
	d.phase = PhaseInitial
	if err != nil {
		d.fail(err)
		return
	}
	d.replace(p)
	d.selected = d.data.SelectedBAC
}

func (d *Dashboard) finishScoped(bac string, p *DashboardPayload, err error) {
	d.phase = PhaseRescope
	if err != nil {
		d.fail(err)
		return
	}
	d.replace(p)
	// The user's selection stays authoritative over the service's.
	if d.data.SelectedBAC != "" && d.data.SelectedBAC != d.selected {
		d.logger.Debug().
			Str("selected", d.selected).
			Str("requested", bac).
			Str("service_selected", d.data.SelectedBAC).
			Msg("ignoring service selectedBAC after rescope")
	}
}

func (d *Dashboard) replace(p *DashboardPayload) {
	if p == nil {
		p = &DashboardPayload{}
	}
	d.data = p
	d.version = ulid.Make()
	d.state = StateReady
	d.logger.Info().
		Str("phase", string(d.phase)).
		Str("version", d.version.String()).
		Int("opportunities", len(p.Opportunities)).
		Int("contacts", len(p.Contacts)).
		Msg("dashboard loaded")
}

func (d *Dashboard) fail(err error) {
	d.state = StateFailed
	msg := ErrorMessage(err)
	d.logger.Error().Err(err).Str("phase", string(d.phase)).Msg("dashboard fetch failed")
	if d.notifier != nil {
		d.notifier.Notify(Notification{
			Title:   "Error",
			Message: msg,
			Variant: VariantError,
		})
	}
}
