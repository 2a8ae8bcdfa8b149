package domain

import "testing"

func TestJourneyAdvanceTracksProgressAndCompletion(t *testing.T) {
	path := []Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	j := NewJourney(JourneyDestination{Position: path[len(path)-1]}, path)

	if j.IsComplete() {
		t.Fatalf("a freshly started journey is not complete")
	}
	if cur, ok := j.CurrentPosition(); !ok || cur != path[0] {
		t.Fatalf("current position must start at path[0]")
	}

	j = j.Advance()
	if cur, ok := j.CurrentPosition(); !ok || cur != path[1] {
		t.Fatalf("advancing once must land on path[1]")
	}
	if j.IsComplete() {
		t.Fatalf("journey is not complete mid-path")
	}

	j = j.Advance()
	if !j.IsComplete() {
		t.Fatalf("reaching the final path cell must complete the journey")
	}
}

func TestAgentIsJourneyingReflectsIncompleteJourney(t *testing.T) {
	path := []Position{{X: 0, Y: 0}, {X: 1, Y: 0}}
	journey := NewJourney(JourneyDestination{Position: path[1]}, path)

	traveling := Agent{Name: "scout", Journey: &journey}
	if !traveling.IsJourneying() {
		t.Fatalf("an agent with an incomplete journey must be journeying")
	}

	arrived := journey.Advance()
	traveling.Journey = &arrived
	if traveling.IsJourneying() {
		t.Fatalf("a completed journey must not count as journeying")
	}

	idle := Agent{Name: "resting"}
	if idle.IsJourneying() {
		t.Fatalf("an agent with no journey is never journeying")
	}
}
