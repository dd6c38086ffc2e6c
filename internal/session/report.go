package session

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Reporter prints a human-readable account of a finished session.
type Reporter struct {
	w    io.Writer
	goal string
}

func NewReporter(w io.Writer, goal string) *Reporter {
	return &Reporter{w: w, goal: goal}
}

// Print writes the final report: outcome, duration, and the round trace.
func (r *Reporter) Print(s *Session, outcome string) {
	fmt.Fprintln(r.w, strings.Repeat("=", 50))
	fmt.Fprintln(r.w, "📋 FINAL REPORT")
	fmt.Fprintln(r.w, strings.Repeat("=", 50))
	fmt.Fprintf(r.w, "GOAL:     %s\n", r.goal)
	fmt.Fprintf(r.w, "OUTCOME:  %s\n", outcome)
	fmt.Fprintf(r.w, "STATE:    %s\n", s.state)
	fmt.Fprintf(r.w, "ROUNDS:   %d\n", s.round)
	if !s.started.IsZero() {
		fmt.Fprintf(r.w, "DURATION: %s\n", time.Since(s.started).Round(time.Second))
	}

	trace := s.rounds.Trace()
	if len(trace) > 0 {
		fmt.Fprintln(r.w, "\nTRACE:")
		for _, line := range trace {
			fmt.Fprintf(r.w, "  %s\n", line)
		}
	}
	fmt.Fprintln(r.w, strings.Repeat("=", 50))
}
