package models

// Tier identifies where a query runs, ordered roughly by cost.
type Tier string

const (
	TierCache  Tier = "cache"
	TierLocal  Tier = "local"
	TierCloud  Tier = "cloud"
	TierHaiku  Tier = "haiku"
	TierSonnet Tier = "sonnet"
	TierOpus   Tier = "opus"
	TierGPT4o  Tier = "gpt4o"
)

// USD per 1K tokens, input/output.
const (
	cloudInputCost  = 0.0003
	cloudOutputCost = 0.0015

	haikuInputCost  = 0.00025
	haikuOutputCost = 0.00125

	sonnetInputCost  = 0.003
	sonnetOutputCost = 0.015

	opusInputCost  = 0.015
	opusOutputCost = 0.075

	gpt4oInputCost  = 0.0025
	gpt4oOutputCost = 0.01
)

// ParseTier maps an explicitly requested model string to a tier. Unknown
// values, empty included, default to local so that a typo never routes to
// a paid tier. Automatic routing ("auto") is the router's job and is
// resolved before this is consulted.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierCache, TierLocal, TierCloud, TierHaiku, TierSonnet, TierOpus, TierGPT4o:
		return Tier(s)
	}
	return TierLocal
}

// Name returns a human-readable tier name.
func (t Tier) Name() string {
	switch t {
	case TierCache:
		return "Cache"
	case TierLocal:
		return "Local"
	case TierCloud:
		return "Cloud"
	case TierHaiku:
		return "Claude Haiku"
	case TierSonnet:
		return "Claude Sonnet"
	case TierOpus:
		return "Claude Opus"
	case TierGPT4o:
		return "GPT-4o"
	}
	return string(t)
}

// InputCostPer1K returns the USD cost per 1K input tokens.
func (t Tier) InputCostPer1K() float64 {
	switch t {
	case TierCloud:
		return cloudInputCost
	case TierHaiku:
		return haikuInputCost
	case TierSonnet:
		return sonnetInputCost
	case TierOpus:
		return opusInputCost
	case TierGPT4o:
		return gpt4oInputCost
	}
	return 0
}

// OutputCostPer1K returns the USD cost per 1K output tokens.
func (t Tier) OutputCostPer1K() float64 {
	switch t {
	case TierCloud:
		return cloudOutputCost
	case TierHaiku:
		return haikuOutputCost
	case TierSonnet:
		return sonnetOutputCost
	case TierOpus:
		return opusOutputCost
	case TierGPT4o:
		return gpt4oOutputCost
	}
	return 0
}

// Cost computes the USD cost of a call on this tier.
func (t Tier) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*t.InputCostPer1K() +
		float64(outputTokens)/1000*t.OutputCostPer1K()
}

// IsFree reports whether the tier costs nothing to run.
func (t Tier) IsFree() bool {
	return t == TierCache || t == TierLocal
}

// IsCloud reports whether the tier calls a paid remote provider.
func (t Tier) IsCloud() bool {
	return !t.IsFree() && t != ""
}

// Escalate returns the next more capable tier, or the same tier when
// already at the top.
func (t Tier) Escalate() Tier {
	switch t {
	case TierCache:
		return TierLocal
	case TierLocal:
		return TierCloud
	case TierCloud:
		return TierSonnet
	case TierHaiku:
		return TierSonnet
	case TierSonnet:
		return TierOpus
	}
	return t
}
