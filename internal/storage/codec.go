package storage

import (
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// This file hand-writes the codecs for the sparse JSON columns (direction
// sets, positions, string slices, known agents, journeys): each
// encode/decode pair maps one domain value to a fixed JSON shape and
// runs it through encoding/json. Tag dispatch on a type string lives in
// scanObject (object_repo.go) and DecodeEvent (event_codec.go).

func encodeDirectionSet(set map[domain.Direction]bool) (string, error) {
	names := make([]string, 0, len(set))
	for d, v := range set {
		if v {
			names = append(names, d.String())
		}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeDirectionSet(raw string) (map[domain.Direction]bool, error) {
	if raw == "" {
		return map[domain.Direction]bool{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("decode direction set: %w", err)
	}
	out := make(map[domain.Direction]bool, len(names))
	for _, n := range names {
		d, ok := domain.ParseDirection(n)
		if !ok {
			return nil, fmt.Errorf("unknown direction %q", n)
		}
		out[d] = true
	}
	return out, nil
}

type positionJSON struct {
	X, Y int
}

func encodePositions(positions []domain.Position) (string, error) {
	raw := make([]positionJSON, 0, len(positions))
	for _, p := range positions {
		raw = append(raw, positionJSON{X: p.X, Y: p.Y})
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodePositions(s string) ([]domain.Position, error) {
	if s == "" {
		return nil, nil
	}
	var raw []positionJSON
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	out := make([]domain.Position, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.Position{X: p.X, Y: p.Y})
	}
	return out, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func encodeStringSlice(items []string) (string, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStringSlice(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode string slice: %w", err)
	}
	return out, nil
}

func encodeKnownAgents(known map[domain.AgentName]bool) (string, error) {
	names := make([]string, 0, len(known))
	for a, v := range known {
		if v {
			names = append(names, string(a))
		}
	}
	return encodeStringSlice(names)
}

func decodeKnownAgents(s string) (map[domain.AgentName]bool, error) {
	names, err := decodeStringSlice(s)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.AgentName]bool, len(names))
	for _, n := range names {
		out[domain.AgentName(n)] = true
	}
	return out, nil
}

// journeyJSON is the JSON-on-disk shape of domain.Journey.
type journeyJSON struct {
	DestX, DestY int
	DestLandmark string
	Path         []positionJSON
	Progress     int
}

func encodeJourney(j *domain.Journey) (*string, error) {
	if j == nil {
		return nil, nil
	}
	raw := journeyJSON{
		DestX:        j.Destination.Position.X,
		DestY:        j.Destination.Position.Y,
		DestLandmark: string(j.Destination.Landmark),
		Progress:     j.Progress,
	}
	for _, p := range j.Path {
		raw.Path = append(raw.Path, positionJSON{X: p.X, Y: p.Y})
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func decodeJourney(s *string) (*domain.Journey, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var raw journeyJSON
	if err := json.Unmarshal([]byte(*s), &raw); err != nil {
		return nil, fmt.Errorf("decode journey: %w", err)
	}
	path := make([]domain.Position, 0, len(raw.Path))
	for _, p := range raw.Path {
		path = append(path, domain.Position{X: p.X, Y: p.Y})
	}
	j := domain.Journey{
		Destination: domain.JourneyDestination{
			Position: domain.Position{X: raw.DestX, Y: raw.DestY},
			Landmark: domain.LandmarkName(raw.DestLandmark),
		},
		Path:     path,
		Progress: raw.Progress,
	}
	return &j, nil
}
