package gamelog_client

const (
	// The roster GET and the log POST share one deployment URL, so both use the root path
	rostersPath = ""
	submitPath  = ""

	JsonHeader      = "Content-Type"
	JsonContentType = "application/json"
)
