// Package chat implements the profile assistant: a rule-based intent
// classifier in front of an LLM, with canned replies for the intents that
// never need one.
package chat

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of a visitor message.
type Intent string

const (
	IntentGreeting      Intent = "GREETING"
	IntentContact       Intent = "CONTACT_INTENT"
	IntentAskExperience Intent = "ASK_EXPERIENCE"
	IntentOffScope      Intent = "OFF_SCOPE"
	IntentUnclear       Intent = "UNCLEAR"
)

var (
	greetingPattern = regexp.MustCompile(`^(hi|hello|hey|greetings|howdy|good\s+(morning|afternoon|evening))[\s!.,?]*$`)

	offScopeTopicPattern = regexp.MustCompile(`^(what|how|why|when|where|who)\s+(is|are|was|were|do|does|did|can|could|would|should)\s+(the|a|an)?\s*(weather|news|stock|bitcoin|crypto|politics|sports)`)

	contactKeywords = []string{
		"contact", "reach", "message", "email", "talk to", "speak with",
		"get in touch", "send", "hire", "recruiting", "opportunity",
	}

	experienceKeywords = []string{
		"experience", "background", "work", "job", "career", "skill",
		"education", "who is", "tell me about", "what does", "where did",
	}

	// Prompt-injection markers are off-scope regardless of phrasing.
	offScopeKeywords = []string{
		"system prompt", "ignore", "pretend", "jailbreak", "bypass", "override",
	}
)

// Classify maps a message to an intent. Order matters: greetings are exact
// matches, and contact beats experience (a recruiter asking about experience
// still wants to get in touch).
func Classify(message string) Intent {
	lower := strings.ToLower(strings.TrimSpace(message))

	if greetingPattern.MatchString(lower) {
		return IntentGreeting
	}
	for _, kw := range contactKeywords {
		if strings.Contains(lower, kw) {
			return IntentContact
		}
	}
	for _, kw := range experienceKeywords {
		if strings.Contains(lower, kw) {
			return IntentAskExperience
		}
	}
	for _, kw := range offScopeKeywords {
		if strings.Contains(lower, kw) {
			return IntentOffScope
		}
	}
	if offScopeTopicPattern.MatchString(lower) {
		return IntentOffScope
	}
	return IntentUnclear
}

// GreetingReply is served without an LLM call on a conversation's first
// greeting.
func GreetingReply(assistantOwner string) string {
	return "Hi there! I'm " + assistantOwner + "'s assistant. I can tell you about " +
		assistantOwner + "'s professional background, or help you get a message to " +
		assistantOwner + ". What can I help you with today?"
}

// OffScopeReply is served without an LLM call for off-scope messages.
func OffScopeReply(assistantOwner string) string {
	return "I can only help with information about " + assistantOwner +
		"'s professional background or assist you in sending " + assistantOwner +
		" a message. Is there something specific about " + assistantOwner +
		"'s experience you'd like to know, or would you like to get in touch?"
}
