package generation

import "github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"

// toolSettings are the fixed per-tool model parameters.
type toolSettings struct {
	System      string
	MaxTokens   int
	Temperature float64
}

var settings = map[entitlements.Tool]toolSettings{
	entitlements.ToolNiche: {
		System:      nicheSystemPrompt,
		MaxTokens:   2000,
		Temperature: 0.8,
	},
	entitlements.ToolAuthority: {
		System:      authoritySystemPrompt,
		MaxTokens:   3000,
		Temperature: 0.7,
	},
	entitlements.ToolDealmaker: {
		System:      dealmakerSystemPrompt,
		MaxTokens:   4000,
		Temperature: 0.4,
	},
}

const nicheSystemPrompt = `You are a business strategist who helps professionals turn their experience into a profitable AI consulting niche.
Analyse the user's background and propose exactly three niches.
Respond with a single JSON object and nothing else, using this shape:
{"niches":[{"name":"","description":"","targetAudience":"","painPoints":[""],"pricePoint":"","whyYou":""}],"recommendation":""}
"recommendation" names the niche you would pick first and explains why in two or three sentences.`

const authoritySystemPrompt = `You are a ghostwriter who turns a founder's story into authority-building content.
Keep the requested tone consistently across every channel.
Respond with a single JSON object and nothing else, using this shape:
{"linkedinPost":"","twitterThread":[""],"emailNewsletter":{"subject":"","body":""},"videoScript":""}
"twitterThread" has between five and eight posts, each under 280 characters.`

const dealmakerSystemPrompt = `You are a consultant who writes client proposals and service agreements for AI implementation projects.
Use only the facts supplied by the user; never invent prices or dates that were not given.
Respond with a single JSON object and nothing else, using this shape:
{"proposal":{"title":"","executiveSummary":"","scope":[""],"deliverables":[""],"timeline":"","investment":""},"contract":{"parties":"","terms":[""],"paymentSchedule":"","cancellation":""},"followUpEmail":{"subject":"","body":""}}`
