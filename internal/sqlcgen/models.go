package sqlcgen

type Station struct {
	Label string
	Name  string
	X     *float64
	Z     *float64
}

type Connection struct {
	FromLabel string
	ToLabel   string
	GroupID   int64
	GroupName string
	Color     string
	LineID    int64
}

type RouteStep struct {
	RouteID             string
	Seq                 int32
	CurrentStationLabel string
	NextStationLabel    string
	CurrentLine         string
}

type RouteSummary struct {
	RouteID string
	Steps   int64
}
