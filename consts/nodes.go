package consts

// Pipeline stage names, used as graph node keys and event stages.
const (
	Ingest   = "ingest_portfolio"
	Validate = "validate_ingestion"
	Enrich   = "enrich_stocks"
	News     = "news_analyzer"
	Report   = "report_generator"

	// Engine is the stage reported when the pipeline itself fails.
	Engine = "engine"
)

// Stages lists the pipeline stages in execution order.
var Stages = []string{Ingest, Validate, Enrich, News, Report}
