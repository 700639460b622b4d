package main

import (
	"os/exec"
	"runtime"
)

// Navigator opens a URL in a new browsing context. Callers do not wait on
// the result beyond logging a launch failure.
type Navigator interface {
	Open(url string) error
}

func ScorecardLink(base string, p *DashboardPayload) string {
	return buildLink(base, p)
}

func SummaryLink(base string, p *DashboardPayload) string {
	return buildLink(base, p)
}

// buildLink appends usid and said to base as-is. Values are not escaped and
// base is not validated, so an empty base still yields "&usid=...&said=...".
func buildLink(base string, p *DashboardPayload) string {
	return base + "&usid=" + EmployeeNumber(p) + "&said=" + AuctionID(p)
}

type browserNavigator struct{}

func (browserNavigator) Open(url string) error {
	cmd := browserCommand(runtime.GOOS, url)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// browserCommand returns the platform's URL opener. The url is passed as a
// single argument, never through a shell string.
func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}
