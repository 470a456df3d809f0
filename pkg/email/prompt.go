package email

import (
	"fmt"
	"strings"

	"github.com/dukex/outreach/pkg/models"
)

// Prompt is a role-tagged prompt pair for the language model.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

const systemPrompt = `You are a sales development representative who writes clear, personal business emails.
Write only the email body: no subject line, no greeting line and no signature.
Separate paragraphs with a single newline.`

const (
	defaultSummary    = "Sales call completed successfully"
	defaultTranscript = "N/A"
)

// BuildPrompt returns the follow-up prompt when the lead was called, and the
// cold outreach prompt otherwise.
func BuildPrompt(lead models.Lead, hasCallContext bool, transcript, summary string) Prompt {
	var b strings.Builder

	if hasCallContext {
		if strings.TrimSpace(summary) == "" {
			summary = defaultSummary
		}

		if strings.TrimSpace(transcript) == "" {
			transcript = defaultTranscript
		}

		fmt.Fprintf(&b, "Write a professional follow-up email after this sales call.\n\n")
		fmt.Fprintf(&b, "Lead name: %s\nCall summary: %s\nCall transcript:\n%s\n\n", lead.Name, summary, transcript)
		b.WriteString("The email must:\n")
		b.WriteString("1. Thank them for their time on the call\n")
		b.WriteString("2. Reference the key points discussed\n")
		b.WriteString("3. Address any concerns or questions they raised\n")
		b.WriteString("4. Close with a clear call-to-action\n")
		b.WriteString("Tone: professional, warm and conversational. Length: 120-250 words.")
	} else {
		fmt.Fprintf(&b, "Write a professional cold outreach email to a sales prospect.\n\n")
		fmt.Fprintf(&b, "Lead name: %s\n\n", lead.Name)
		b.WriteString("The email must:\n")
		b.WriteString("1. Open with an attention-grabbing first line\n")
		b.WriteString("2. Briefly state the value proposition of our service\n")
		b.WriteString("3. Address a common pain point or opportunity\n")
		b.WriteString("4. Close with a clear call-to-action, such as booking a call or a demo\n")
		b.WriteString("Tone: professional, concise and not overly salesy. Length: 120-180 words.")
	}

	return Prompt{System: systemPrompt, User: b.String()}
}

// Subject returns the email subject for lead.
func Subject(lead models.Lead, hasCallContext bool) string {
	if hasCallContext {
		return "Follow-up from Our Conversation - " + lead.Name
	}

	return "Quick Question for " + lead.Name
}
