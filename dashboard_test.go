package main

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInitialScenario(t *testing.T) {
	svc := &fakeService{initial: func(_ context.Context, recordID string) (*DashboardPayload, error) {
		assert.Equal(t, "001R1", recordID)
		return scenarioPayload(), nil
	}}
	notes := &recordingNotifier{}
	d := newTestDashboard(svc, notes)

	require.NoError(t, d.LoadInitial(context.Background()))

	assert.Equal(t, StateReady, d.State())
	assert.Equal(t, "B1", d.SelectedBAC())
	assert.Equal(t, []OppRow{{ID: 1, ProductType: "Warranty", Product: "GAP", EnrollDate: "2024-01-01", ExpDate: "2025-01-01", Enrolled: true}}, OppsTable(d.Data()))
	assert.Empty(t, notes.notes)
	assert.NotZero(t, d.Version())
}

func TestLoadInitialFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "body message wins",
			err:     &FetchError{Status: 500, Body: &ErrorBody{Message: "Record not accessible"}, Message: "Script-thrown exception"},
			message: "Record not accessible",
		},
		{
			name:    "empty body falls back to own message",
			err:     &FetchError{Body: &ErrorBody{}, Message: "Script-thrown exception"},
			message: "Script-thrown exception",
		},
		{
			name:    "plain error",
			err:     errors.New("connection refused"),
			message: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{initial: func(context.Context, string) (*DashboardPayload, error) {
				return nil, tt.err
			}}
			notes := &recordingNotifier{}
			d := newTestDashboard(svc, notes)

			err := d.LoadInitial(context.Background())

			require.Error(t, err)
			assert.Nil(t, d.Data())
			assert.False(t, d.HasData())
			assert.Equal(t, StateFailed, d.State())
			assert.Equal(t, PhaseInitial, d.Phase())
			require.Len(t, notes.notes, 1)
			assert.Equal(t, "Error", notes.notes[0].Title)
			assert.Equal(t, VariantError, notes.notes[0].Variant)
			assert.Equal(t, tt.message, notes.notes[0].Message)
			assert.Empty(t, OppsTable(d.Data()))
		})
	}
}

func TestSelectBACIsLocal(t *testing.T) {
	svc := &fakeService{initial: func(context.Context, string) (*DashboardPayload, error) {
		return scenarioPayload(), nil
	}}
	d := newTestDashboard(svc, &recordingNotifier{})
	require.NoError(t, d.LoadInitial(context.Background()))
	before := d.Data()

	d.SelectBAC("not-an-option")

	assert.Equal(t, "not-an-option", d.SelectedBAC())
	assert.Equal(t, 0, svc.scopedCalls)
	assert.Same(t, before, d.Data())
}

func TestGoReplacesPayloadAndKeepsSelection(t *testing.T) {
	scoped := &DashboardPayload{
		SelectedBAC:   "B9",
		Opportunities: []Opportunity{{Product: "VSC"}, {Product: "GAP"}},
	}
	svc := &fakeService{
		initial: func(context.Context, string) (*DashboardPayload, error) { return scenarioPayload(), nil },
		scoped: func(_ context.Context, recordID, bac string) (*DashboardPayload, error) {
			assert.Equal(t, "001R1", recordID)
			return scoped, nil
		},
	}
	notes := &recordingNotifier{}
	d := newTestDashboard(svc, notes)
	require.NoError(t, d.LoadInitial(context.Background()))
	firstVersion := d.Version()

	d.SelectBAC("B2")
	require.NoError(t, d.Go(context.Background()))

	assert.Equal(t, []string{"B2"}, svc.scopedBACs)
	assert.Same(t, scoped, d.Data())
	assert.Equal(t, "B2", d.SelectedBAC(), "service selectedBAC is ignored after a rescope")
	assert.Equal(t, StateReady, d.State())
	assert.Equal(t, PhaseRescope, d.Phase())
	assert.NotEqual(t, firstVersion, d.Version())
	assert.Empty(t, notes.notes)

	rows := OppsTable(d.Data())
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].ID)
	assert.Equal(t, "VSC", rows[0].Product)
}

func TestGoFailureKeepsPriorPayload(t *testing.T) {
	svc := &fakeService{
		initial: func(context.Context, string) (*DashboardPayload, error) { return scenarioPayload(), nil },
		scoped: func(context.Context, string, string) (*DashboardPayload, error) {
			return nil, &FetchError{Body: &ErrorBody{Message: "BAC B2 is not available"}, Message: "failed"}
		},
	}
	notes := &recordingNotifier{}
	d := newTestDashboard(svc, notes)
	require.NoError(t, d.LoadInitial(context.Background()))
	prior := d.Data()
	priorVersion := d.Version()

	d.SelectBAC("B2")
	err := d.Go(context.Background())

	require.Error(t, err)
	assert.Equal(t, "B2", d.SelectedBAC())
	assert.Same(t, prior, d.Data())
	assert.Equal(t, priorVersion, d.Version())
	assert.Equal(t, StateFailed, d.State())
	require.Len(t, notes.notes, 1)
	assert.Equal(t, "BAC B2 is not available", notes.notes[0].Message)

	// Still usable after a failed rescope.
	assert.Len(t, OppsTable(d.Data()), 1)
	assert.Equal(t, "https://x/scorecard?&usid=E1&said=A1", d.ScorecardLink())
}

func TestLoadForScopeExplicitBAC(t *testing.T) {
	svc := &fakeService{}
	d := newTestDashboard(svc, &recordingNotifier{})
	d.SelectBAC("B1")

	require.NoError(t, d.LoadForScope(context.Background(), "B7"))

	assert.Equal(t, []string{"B7"}, svc.scopedBACs)
	assert.Equal(t, "B1", d.SelectedBAC())
}

func TestNilPayloadIsTreatedAsEmpty(t *testing.T) {
	svc := &fakeService{initial: func(context.Context, string) (*DashboardPayload, error) { return nil, nil }}
	d := newTestDashboard(svc, &recordingNotifier{})

	require.NoError(t, d.LoadInitial(context.Background()))

	assert.True(t, d.HasData())
	assert.Equal(t, "", d.SelectedBAC())
	assert.Empty(t, BACOptions(d.Data()))
}

func TestLastResolvedFetchWins(t *testing.T) {
	first := &DashboardPayload{Opportunities: []Opportunity{{Product: "first"}}}
	second := &DashboardPayload{Opportunities: []Opportunity{{Product: "second"}}}
	d := newTestDashboard(&fakeService{}, &recordingNotifier{})

	// Two Go presses in flight; the second request resolves first.
	d.begin(PhaseRescope)
	d.begin(PhaseRescope)
	d.finishScoped("B2", second, nil)
	d.finishScoped("B1", first, nil)

	assert.Same(t, first, d.Data())
}

func TestOpenLinksDelegatesToNavigator(t *testing.T) {
	nav := &recordingNavigator{err: errors.New("no browser")}
	svc := &fakeService{initial: func(context.Context, string) (*DashboardPayload, error) { return scenarioPayload(), nil }}
	d := NewDashboard("001R1", svc, &recordingNotifier{}, nav, testLinks, zerolog.Nop())
	require.NoError(t, d.LoadInitial(context.Background()))

	assert.Equal(t, "https://x/scorecard?&usid=E1&said=A1", d.OpenScorecard())
	assert.Equal(t, "https://x/summary?&usid=E1&said=A1", d.OpenSummary())
	assert.Equal(t, []string{
		"https://x/scorecard?&usid=E1&said=A1",
		"https://x/summary?&usid=E1&said=A1",
	}, nav.urls)
}

func TestFetchWithoutNotifier(t *testing.T) {
	svc := &fakeService{initial: func(context.Context, string) (*DashboardPayload, error) {
		return nil, errors.New("boom")
	}}
	d := newTestDashboard(svc, nil)

	assert.Error(t, d.LoadInitial(context.Background()))
	assert.Equal(t, StateFailed, d.State())
}
