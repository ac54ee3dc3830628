package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/pagestream/component"
)

// Summary tracks and displays what a command started before streaming.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	streams         []StreamInfo
}

// StreamInfo describes one stream a command is about to drain.
type StreamInfo struct {
	Name    string
	Backend string
	Details string
}

// NewSummary creates a new summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackStream records a stream to be listed in the summary.
func (s *Summary) TrackStream(name, backend, details string) {
	s.streams = append(s.streams, StreamInfo{Name: name, Backend: backend, Details: details})
}

// Write prints the summary, including live health from the registry.
func (s *Summary) Write(ctx context.Context, w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "%s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if registry != nil {
		comps := registry.All()
		health := registry.HealthAll(ctx)
		if len(comps) > 0 {
			fmt.Fprintln(w, "components")
		}
		for i, c := range comps {
			d := component.Describe(c)
			status := string(component.StatusUnhealthy)
			if i < len(health) {
				status = strings.ToLower(string(health[i].Status))
			}
			fmt.Fprintf(w, "  %s %s [%s] %s\n", treePrefix(i, len(comps)), d.Name, status, d.Details)
		}
	}

	if len(s.streams) > 0 {
		fmt.Fprintln(w, "streams")
		for i, st := range s.streams {
			fmt.Fprintf(w, "  %s %s (%s) %s\n", treePrefix(i, len(s.streams)), st.Name, st.Backend, st.Details)
		}
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
