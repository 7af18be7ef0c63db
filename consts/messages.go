package consts

// Fatal ingestion and validation messages shown to the user.
const (
	MsgNoFile          = "No file was uploaded."
	MsgUnsupportedType = "Unsupported file type: .%s"
	MsgParseFailed     = "Failed to parse the uploaded file. Please ensure the format is correct and all required columns are present."
	MsgIngestionFailed = "An unexpected error occurred during file ingestion: %v"

	MsgInvalidPortfolio = "Validation failed: Portfolio data is not in the correct format (expected portfolio, got nil)."
	MsgStocksMissing    = "Validation failed: 'stocks' key is missing or is not a list in the portfolio data. Please check the file format."
	MsgNoStocks         = "Validation failed: The portfolio file was parsed, but it contains no stocks to analyze."

	MsgEngineFailure = "A critical error occurred in the analysis engine: %v"
)

// Per holding messages.
const (
	MsgStockFailed         = "Could not process stock %s: %v"
	MsgLiveDataUnavailable = "Live market data could not be retrieved from the provider."
	MsgMissingTicker       = "Skipped holding #%d: ticker is missing."
)
