package railmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LineRef names the line a route step travels on. It may hold a line id, a
// group id or a group name; JSON numbers and strings are both accepted.
type LineRef string

func (r *LineRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = LineRef(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("line reference: %w", err)
	}
	*r = LineRef(n.String())
	return nil
}

// UnmarshalTOML accepts TOML strings and integers.
func (r *LineRef) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case string:
		*r = LineRef(t)
	case int64:
		*r = LineRef(strconv.FormatInt(t, 10))
	default:
		return fmt.Errorf("line reference: unsupported TOML value %T", v)
	}
	return nil
}

func (r LineRef) matches(c *Connection) bool {
	ref := strings.TrimSpace(string(r))
	if ref == "" {
		return false
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if c.Line != nil && c.Line.ID == id {
			return true
		}
		if c.Group.ID == id {
			return true
		}
	}
	return c.Group.Name == ref
}

type RouteStep struct {
	Current string  `json:"current_station_label" yaml:"current_station_label" toml:"current_station_label"`
	Next    string  `json:"next_station_label" yaml:"next_station_label" toml:"next_station_label"`
	Line    LineRef `json:"current_line" yaml:"current_line" toml:"current_line"`
}

// Route is the highlighted path. The zero value is an inactive overlay.
type Route struct {
	connections []*Connection
	inRoute     map[*Connection]struct{}
	stations    map[*Station]struct{}
}

func (r *Route) Active() bool { return r != nil && len(r.connections) > 0 }

func (r *Route) Connections() []*Connection {
	if r == nil {
		return nil
	}
	return r.connections
}

func (r *Route) HasConnection(c *Connection) bool {
	if r == nil {
		return false
	}
	_, ok := r.inRoute[c]
	return ok
}

func (r *Route) HasStation(s *Station) bool {
	if r == nil {
		return false
	}
	_, ok := r.stations[s]
	return ok
}

// StationCount is the size of the route-station set.
func (r *Route) StationCount() int {
	if r == nil {
		return 0
	}
	return len(r.stations)
}

// BuildRoute walks steps against the graph's connections. Steps that match
// nothing or more than one connection are reported; an ambiguous step keeps
// the first match in connection order.
func BuildRoute(g *Graph, steps []RouteStep, report DiagnosticFunc) *Route {
	if report == nil {
		report = func(Diagnostic) {}
	}
	r := &Route{
		inRoute:  make(map[*Connection]struct{}),
		stations: make(map[*Station]struct{}),
	}

	for i, step := range steps {
		var match *Connection
		matches := 0
		for _, c := range g.Connections() {
			if !c.Joins(step.Current, step.Next) || !step.Line.matches(c) {
				continue
			}
			if match == nil {
				match = c
			}
			matches++
		}

		switch {
		case matches == 0:
			report(Diagnostic{
				Kind: DiagUnmatchedRoute,
				Err:  fmt.Errorf("%w: step %d %s->%s line %q", ErrRouteStepUnmatched, i, step.Current, step.Next, step.Line),
			})
			continue
		case matches > 1:
			report(Diagnostic{
				Kind: DiagAmbiguousRoute,
				Err: fmt.Errorf("%w: step %d %s->%s line %q matched %d, using group %d line %d",
					ErrAmbiguousRouteStep, i, step.Current, step.Next, step.Line, matches, match.Group.ID, match.Line.ID),
			})
		}

		if _, dup := r.inRoute[match]; dup {
			continue
		}
		r.connections = append(r.connections, match)
		r.inRoute[match] = struct{}{}
		r.stations[match.From] = struct{}{}
		r.stations[match.To] = struct{}{}
	}
	return r
}

// RenderOrder is the station draw order: non-route stations first, then
// route stations, each half keeping graph order. The graph is not modified.
func RenderOrder(g *Graph, r *Route) []*Station {
	all := g.Stations()
	out := make([]*Station, 0, len(all))
	if !r.Active() {
		return append(out, all...)
	}
	for _, s := range all {
		if !r.HasStation(s) {
			out = append(out, s)
		}
	}
	for _, s := range all {
		if r.HasStation(s) {
			out = append(out, s)
		}
	}
	return out
}
