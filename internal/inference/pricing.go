package inference

// Token rates for media attached to a prompt, in tokens per second.
const (
	videoTokensPerSecond = 263
	audioTokensPerSecond = 32
)

// pricePerMillionTokens maps model names to USD per million input tokens.
var pricePerMillionTokens = map[string]float64{
	"gemini-2.0-flash":      0.075,
	"gemini-2.0-flash-lite": 0.0375,
	"gemini-1.5-flash":      0.075,
	"gemini-1.5-pro":        1.25,
	"gpt-4o-mini":           0.15,
	"gpt-4o":                2.5,
}

const defaultPricePerMillion = 0.075

// EstimateTokens approximates the input token count for a request: roughly
// four characters per text token plus fixed per-second rates for media.
func EstimateTokens(req *Request) int {
	tokens := len(req.Prompt) / 4
	tokens += int(req.VideoSeconds * videoTokensPerSecond)
	tokens += int(req.AudioSeconds * audioTokensPerSecond)
	return tokens
}

// EstimateCost converts a token count to USD for the given model.
func EstimateCost(model string, tokens int) float64 {
	price, ok := pricePerMillionTokens[model]
	if !ok {
		price = defaultPricePerMillion
	}
	return float64(tokens) / 1_000_000 * price
}
