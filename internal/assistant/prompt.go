package assistant

import "fmt"

// SystemInstruction scopes the model to APIHub topics. The phrase it asks
// the model to use is a hint; escalation is decided by the detector's list.
const SystemInstruction = `You are APIMAN, a chatbot for APIHub. Only answer APIHub-related questions about:
- Endpoints
- Authentication (keys, tokens)
- Rate limits
- Errors
- Data formats

If the question is off-topic or unclear, say:
"I cannot resolve this. A support ticket will be created."`

// UnavailableMessage is shown when neither an answer nor a ticket could be produced.
const UnavailableMessage = "Sorry, the assistant is unavailable right now and your request could not be recorded. Please try again later."

func annotate(reply, ticketID string) string {
	return fmt.Sprintf("%s\n\nSupport Ticket #%s has been automatically created.", reply, ticketID)
}

func fallback(ticketID string) string {
	return fmt.Sprintf("Sorry, I could not answer that right now. Support Ticket #%s has been created and an operator will follow up.", ticketID)
}
