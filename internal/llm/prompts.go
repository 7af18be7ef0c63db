package llm

// Prompt templates use FString placeholders; literal braces are not allowed.
const (
	FundamentalPrompt = "Based on these fundamentals: {data}, is the company's financial health Good, Neutral, or Poor?"

	TechnicalPrompt = "Based on these technical indicators: {data}, is the current market sentiment Bullish, Neutral, or Bearish?"

	SynthesisPrompt = "You are a Senior Analyst. Synthesize the data below. " +
		"Data: Fundamental Verdict: {fundamental_verdict}, Technical Verdict: {technical_verdict}, Beta: {beta}. " +
		"Return ONLY a raw JSON with keys 'recommendation', 'urgency', and 'reason'."

	SummaryPrompt = "Summarize the following news headline into a single, concise, and insightful sentence: {article_title}"

	ProsConsPrompt = "You are a senior stock analyst reviewing financial data for '{stock_name}'. " +
		"Based on the following metrics: {fundamentals}, generate a balanced list of potential pros and cons for an investor. " +
		"Focus on objective facts from the data. Provide 3 pros and 3 cons. " +
		"Return ONLY a raw JSON object with two keys: 'pros' and 'cons'. Both keys should hold a list of concise, single-sentence strings."

	ScreenPrompt = "You are an investment advisor screening Indian equities. " +
		"Investor profile: risk appetite {risk_appetite}, investment horizon {horizon}. " +
		"Stock: {stock_name} ({ticker}), sector {sector}, beta {beta}. " +
		"Fundamentals: {fundamentals}. Technicals: {technicals}. " +
		"Does this stock suit the investor profile? " +
		"Return ONLY a raw JSON object with keys 'match' (Yes or No) and 'reason' (one sentence)."
)
