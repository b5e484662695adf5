package advisor

import "strings"

// Role identifies one of the reasoning agents. The three specialists never
// see each other's output; only the synthesizer receives the combined
// document.
type Role string

const (
	RoleTechnical   Role = "technical"
	RoleMacro       Role = "macro"
	RoleStrategist  Role = "strategist"
	RoleSynthesizer Role = "synthesizer"
)

// specialistOrder is the fixed assembly order for the context document,
// independent of the order in which the calls resolve.
var specialistOrder = []Role{RoleTechnical, RoleMacro, RoleStrategist}

const technicalPrompt = `You are the technical analysis desk of an investment advisory team.
Given a client question, analyze relevant price action, trend structure,
momentum, support/resistance levels and volume behavior. Be concrete and
concise. Do not give a final recommendation; another agent merges views.`

const macroPrompt = `You are the macroeconomic and news analysis desk of an investment advisory team.
Given a client question, analyze the relevant macro backdrop: rates, inflation,
growth, central-bank posture, sector news flow and geopolitical factors.
Be concrete and concise. Do not give a final recommendation; another agent
merges views.`

const strategistPrompt = `You are the strategy and risk desk of an investment advisory team.
Given a client question, frame it in terms of portfolio strategy: position
sizing, time horizon, hedging, scenario planning and risk tolerance.
Be concrete and concise. Do not give a final recommendation; another agent
merges views.`

const synthesisPrompt = `You are the senior advisor of an investment advisory team. You receive the
client's question together with three desk notes (technical, macro, strategy).
Merge them into one customer-facing answer with exactly these sections:

1. Context
2. Macro view
3. Technical view
4. Scenarios
5. Risk considerations
6. Bottom line
7. Disclaimer

Keep the tone professional and accessible. The disclaimer must state that this
is not individual investment advice.`

// systemPrompts binds each role to its fixed system prompt. Prompts are set
// here at build time and never user-controlled.
var systemPrompts = map[Role]string{
	RoleTechnical:   technicalPrompt,
	RoleMacro:       macroPrompt,
	RoleStrategist:  strategistPrompt,
	RoleSynthesizer: synthesisPrompt,
}

// fallbackText substitutes a failed specialist slot so the synthesizer always
// receives three sections.
var fallbackText = map[Role]string{
	RoleTechnical:  "Technical analysis unavailable.",
	RoleMacro:      "Macro analysis unavailable.",
	RoleStrategist: "Strategy analysis unavailable.",
}

// sectionHeading labels each specialist slot in the context document.
var sectionHeading = map[Role]string{
	RoleTechnical:  "## Technical analysis",
	RoleMacro:      "## Macro and news analysis",
	RoleStrategist: "## Strategy and risk framing",
}

// localized customer-facing texts, keyed by lowercase language directive.
// Unknown languages fall back to English; the model handles everything else
// via the language directive on the prompts.
var limitReachedTexts = map[string]string{
	"":        "You have reached your monthly advisory limit. Upgrade your plan or wait for the next billing period.",
	"spanish": "Has alcanzado tu límite mensual de consultas. Mejora tu plan o espera al próximo período de facturación.",
	"german":  "Du hast dein monatliches Beratungslimit erreicht. Erweitere deinen Plan oder warte auf den nächsten Abrechnungszeitraum.",
}

var unableToProcessTexts = map[string]string{
	"":        "Sorry, I was unable to process your question right now. Please try again.",
	"spanish": "Lo siento, no pude procesar tu pregunta en este momento. Inténtalo de nuevo.",
	"german":  "Entschuldigung, deine Frage konnte gerade nicht verarbeitet werden. Bitte versuche es erneut.",
}

// LimitReachedText returns the quota-exhausted message for a language
// directive, defaulting to English.
func LimitReachedText(language string) string {
	if t, ok := limitReachedTexts[normalizeLanguage(language)]; ok {
		return t
	}
	return limitReachedTexts[""]
}

// UnableToProcessText returns the synthesis-failure message for a language
// directive, defaulting to English.
func UnableToProcessText(language string) string {
	if t, ok := unableToProcessTexts[normalizeLanguage(language)]; ok {
		return t
	}
	return unableToProcessTexts[""]
}

func normalizeLanguage(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	switch l {
	case "en", "english":
		return ""
	case "es":
		return "spanish"
	case "de":
		return "german"
	}
	return l
}
