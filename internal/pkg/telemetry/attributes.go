package telemetry

// Span attribute keys shared by the map service adapter and use cases.
const (
	AttrKeyword  = "maps.keyword"
	AttrProvider = "maps.provider"
	AttrResults  = "maps.results"
	AttrRadius   = "maps.radius_m"
	AttrSession  = "session.id"
	AttrEvent    = "session.event"
	AttrOutcome  = "trigger.outcome"
)
