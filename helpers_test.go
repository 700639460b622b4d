package main

import (
	"context"

	"github.com/rs/zerolog"
)

type fakeService struct {
	initial func(ctx context.Context, recordID string) (*DashboardPayload, error)
	scoped  func(ctx context.Context, recordID, bac string) (*DashboardPayload, error)

	initialCalls int
	scopedCalls  int
	scopedBACs   []string
}

func (f *fakeService) InitialData(ctx context.Context, recordID string) (*DashboardPayload, error) {
	f.initialCalls++
	if f.initial == nil {
		return &DashboardPayload{}, nil
	}
	return f.initial(ctx, recordID)
}

func (f *fakeService) DataForBAC(ctx context.Context, recordID, bac string) (*DashboardPayload, error) {
	f.scopedCalls++
	f.scopedBACs = append(f.scopedBACs, bac)
	if f.scoped == nil {
		return &DashboardPayload{}, nil
	}
	return f.scoped(ctx, recordID, bac)
}

type recordingNotifier struct {
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.notes = append(r.notes, n)
}

type recordingNavigator struct {
	urls []string
	err  error
}

func (r *recordingNavigator) Open(url string) error {
	r.urls = append(r.urls, url)
	return r.err
}

var testLinks = LinkConfig{
	ScorecardBase: "https://x/scorecard?",
	SummaryBase:   "https://x/summary?",
}

func newTestDashboard(svc QueryService, n Notifier) *Dashboard {
	return NewDashboard("001R1", svc, n, nil, testLinks, zerolog.Nop())
}

func scenarioPayload() *DashboardPayload {
	return &DashboardPayload{
		SelectedBAC: "B1",
		BACOptions:  []BACOption{{Label: "B1", Value: "B1"}},
		Opportunities: []Opportunity{
			{ProductType: "Warranty", Product: "GAP", EnrollDate: "2024-01-01", ExpDate: "2025-01-01", Enrolled: true},
		},
		UserEmployeeNumber: "E1",
		Account:            &Account{SmartAuctionID: "A1"},
	}
}
