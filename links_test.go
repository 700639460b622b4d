package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinks(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		payload *DashboardPayload
		want    string
	}{
		{
			name:    "scenario",
			base:    "https://x/scorecard?",
			payload: &DashboardPayload{UserEmployeeNumber: "E1", Account: &Account{SmartAuctionID: "A1"}},
			want:    "https://x/scorecard?&usid=E1&said=A1",
		},
		{
			name:    "no payload",
			base:    "https://x/scorecard?",
			payload: nil,
			want:    "https://x/scorecard?&usid=&said=",
		},
		{
			name:    "null account",
			base:    "https://x/summary?id=1",
			payload: &DashboardPayload{UserEmployeeNumber: "E1"},
			want:    "https://x/summary?id=1&usid=E1&said=",
		},
		{
			name:    "empty base still builds",
			base:    "",
			payload: &DashboardPayload{UserEmployeeNumber: "E1", Account: &Account{SmartAuctionID: "A1"}},
			want:    "&usid=E1&said=A1",
		},
		{
			name:    "values are not escaped",
			base:    "b?",
			payload: &DashboardPayload{UserEmployeeNumber: "E 1", Account: &Account{SmartAuctionID: "A&1"}},
			want:    "b?&usid=E 1&said=A&1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScorecardLink(tt.base, tt.payload))
			assert.Equal(t, tt.want, SummaryLink(tt.base, tt.payload))
		})
	}
}

func TestBrowserCommand(t *testing.T) {
	url := "https://x/scorecard?&usid=E1&said=A1"
	tests := []struct {
		goos string
		want []string
	}{
		{goos: "darwin", want: []string{"open", url}},
		{goos: "linux", want: []string{"xdg-open", url}},
		{goos: "freebsd", want: []string{"xdg-open", url}},
		{goos: "windows", want: []string{"rundll32", "url.dll,FileProtocolHandler", url}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd := browserCommand(tt.goos, url)
			assert.Equal(t, tt.want, cmd.Args)
		})
	}
}
