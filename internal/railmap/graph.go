package railmap

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// StationRecord is one flat station row as produced by a data source.
// X and Z are pointers so a missing coordinate can be told apart from 0.
type StationRecord struct {
	Label string   `json:"label" yaml:"label" toml:"label"`
	Name  string   `json:"name" yaml:"name" toml:"name"`
	X     *float64 `json:"x" yaml:"x" toml:"x"`
	Z     *float64 `json:"z" yaml:"z" toml:"z"`
}

// ConnectionRecord is one flat connection row as produced by a data source.
type ConnectionRecord struct {
	FromLabel string `json:"from_label" yaml:"from_label" toml:"from_label"`
	ToLabel   string `json:"to_label" yaml:"to_label" toml:"to_label"`
	GroupID   int64  `json:"group_id" yaml:"group_id" toml:"group_id"`
	GroupName string `json:"group_name" yaml:"group_name" toml:"group_name"`
	Color     string `json:"color" yaml:"color" toml:"color"`
	LineID    int64  `json:"line_id" yaml:"line_id" toml:"line_id"`
}

type Station struct {
	Label  string
	Name   string
	X      float64
	Y      float64
	Show   bool
	Groups []*Group
}

func (s *Station) hasGroup(g *Group) bool {
	for _, sg := range s.Groups {
		if sg == g {
			return true
		}
	}
	return false
}

// VisibleGroups returns the station's shown groups in membership order.
func (s *Station) VisibleGroups() []*Group {
	out := make([]*Group, 0, len(s.Groups))
	for _, g := range s.Groups {
		if g.Show {
			out = append(out, g)
		}
	}
	return out
}

type Group struct {
	ID    int64
	Name  string
	Color string
	Show  bool
	Lines []*Line
}

func (g *Group) line(id int64) *Line {
	for _, l := range g.Lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

type Line struct {
	ID    int64
	Group *Group
}

// Connection is a directed edge; TwoWay marks that the reverse direction was
// also present in the input.
type Connection struct {
	From   *Station
	To     *Station
	Group  *Group
	Line   *Line
	Show   bool
	TwoWay bool
}

// Joins reports whether the connection links a and b in either direction.
func (c *Connection) Joins(a, b string) bool {
	return (c.From.Label == a && c.To.Label == b) || (c.From.Label == b && c.To.Label == a)
}

// IngestStats summarises one SetData call.
type IngestStats struct {
	Stations    int `json:"stations"`
	Groups      int `json:"groups"`
	Lines       int `json:"lines"`
	Connections int `json:"connections"`
	Skipped     int `json:"skipped"`
}

// Graph owns every station, group, line and connection. It is rebuilt from
// scratch by Ingest.
type Graph struct {
	stations    []*Station
	groups      []*Group
	connections []*Connection

	byLabel map[string]*Station
	byGroup map[int64]*Group
	byEdge  map[edgeKey]*Connection
}

type edgeKey struct {
	a, b  *Station
	group *Group
}

// newEdgeKey orders the endpoints so both directions share a key.
func newEdgeKey(from, to *Station, g *Group) edgeKey {
	if strings.Compare(from.Label, to.Label) > 0 {
		from, to = to, from
	}
	return edgeKey{a: from, b: to, group: g}
}

func NewGraph() *Graph {
	g := &Graph{}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.stations = nil
	g.groups = nil
	g.connections = nil
	g.byLabel = make(map[string]*Station)
	g.byGroup = make(map[int64]*Group)
	g.byEdge = make(map[edgeKey]*Connection)
}

func (g *Graph) Stations() []*Station       { return g.stations }
func (g *Graph) Groups() []*Group           { return g.groups }
func (g *Graph) Connections() []*Connection { return g.connections }

func (g *Graph) Station(label string) (*Station, bool) {
	s, ok := g.byLabel[label]
	return s, ok
}

func (g *Graph) Group(id int64) (*Group, bool) {
	grp, ok := g.byGroup[id]
	return grp, ok
}

// Ingest replaces the graph contents with the given records. Problems are
// reported through report and never abort the build.
func (g *Graph) Ingest(stations []StationRecord, connections []ConnectionRecord, report DiagnosticFunc) IngestStats {
	if report == nil {
		report = func(Diagnostic) {}
	}
	g.reset()

	var stats IngestStats
	for _, rec := range stations {
		if !validCoord(rec.X) || !validCoord(rec.Z) {
			stats.Skipped++
			continue
		}
		if _, exists := g.byLabel[rec.Label]; exists {
			stats.Skipped++
			report(Diagnostic{
				Kind: DiagDuplicateStation,
				Err:  fmt.Errorf("%w: %q", ErrDuplicateStation, rec.Label),
			})
			continue
		}
		s := &Station{Label: rec.Label, Name: rec.Name, X: *rec.X, Y: *rec.Z, Show: true}
		g.stations = append(g.stations, s)
		g.byLabel[s.Label] = s
	}

	for _, rec := range connections {
		from, okFrom := g.byLabel[rec.FromLabel]
		to, okTo := g.byLabel[rec.ToLabel]
		if !okFrom || !okTo {
			stats.Skipped++
			missing := rec.FromLabel
			if okFrom {
				missing = rec.ToLabel
			}
			report(Diagnostic{
				Kind: DiagMissingStation,
				Err:  fmt.Errorf("%w: %q (connection %s->%s, group %d)", ErrMissingStation, missing, rec.FromLabel, rec.ToLabel, rec.GroupID),
			})
			continue
		}

		grp := g.groupFor(rec)
		line := grp.line(rec.LineID)
		if line == nil {
			line = &Line{ID: rec.LineID, Group: grp}
			grp.Lines = append(grp.Lines, line)
		}

		if !from.hasGroup(grp) {
			from.Groups = append(from.Groups, grp)
		}
		if !to.hasGroup(grp) {
			to.Groups = append(to.Groups, grp)
		}

		key := newEdgeKey(from, to, grp)
		if existing, ok := g.byEdge[key]; ok {
			if existing.To == from && existing.From == to {
				existing.TwoWay = true
			}
			continue
		}
		c := &Connection{From: from, To: to, Group: grp, Line: line, Show: true}
		g.connections = append(g.connections, c)
		g.byEdge[key] = c
	}

	sort.SliceStable(g.connections, func(i, j int) bool {
		return g.connections[i].Group.ID < g.connections[j].Group.ID
	})

	stats.Stations = len(g.stations)
	stats.Groups = len(g.groups)
	stats.Connections = len(g.connections)
	for _, grp := range g.groups {
		stats.Lines += len(grp.Lines)
	}
	return stats
}

func (g *Graph) groupFor(rec ConnectionRecord) *Group {
	if grp, ok := g.byGroup[rec.GroupID]; ok {
		return grp
	}
	grp := &Group{
		ID:    rec.GroupID,
		Name:  rec.GroupName,
		Color: rec.Color,
		Show:  true,
	}
	g.groups = append(g.groups, grp)
	g.byGroup[grp.ID] = grp
	return grp
}

func validCoord(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
