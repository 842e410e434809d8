package prompt

import (
	"fmt"
	"strings"

	"revenai/pkg/domain"
)

// Fallbacks applied when config fields are blank. The persona directives
// are always present in the composed prompt.
const (
	fallbackTone        = "professional"
	fallbackPersonality = "friendly and helpful"
	fallbackGreeting    = "Hello! I'm here to help you with any questions about our company."
)

// Compose renders the system instruction for one chat request. It is a
// pure function of its inputs: identical (config, snapshot) pairs yield
// byte-identical output.
func Compose(cfg domain.AssistantConfig, snap domain.GroundingSnapshot) string {
	tone := strings.TrimSpace(string(cfg.Tone))
	if tone == "" {
		tone = fallbackTone
	}
	personality := strings.TrimSpace(string(cfg.Personality))
	if personality == "" {
		personality = fallbackPersonality
	}
	greeting := strings.TrimSpace(cfg.GreetingMessage)
	if greeting == "" {
		greeting = fallbackGreeting
	}

	var b strings.Builder
	b.WriteString("You are Reven, the AI virtual assistant for LoveAmeriAfrikah Enterprises.\n\n")
	b.WriteString(greeting)
	b.WriteString("\n\nPERSONALITY & TONE:\n")
	fmt.Fprintf(&b, "- Tone: %s\n", tone)
	fmt.Fprintf(&b, "- Personality: %s\n", personality)
	b.WriteString("- Always be informative, accurate, and helpful\n")
	b.WriteString("- Provide specific details from our company data when relevant\n\n")

	writeCompanyInfo(&b, snap)

	b.WriteString("\nCAPABILITIES:\n")
	b.WriteString("- Answer questions about our products, services, and pricing\n")
	b.WriteString("- Provide information about our branch locations and contact details\n")
	b.WriteString("- Share insights from our latest blog posts\n")
	b.WriteString("- Guide users through our offerings\n")
	b.WriteString("- Assist with general inquiries about the company\n")
	b.WriteString("- Help with product recommendations based on user needs\n")
	b.WriteString("- Provide team information when asked\n")

	b.WriteString("\nIMPORTANT GUIDELINES:\n")
	fmt.Fprintf(&b, "- Always respond in a %s tone with a %s personality\n", tone, personality)
	b.WriteString("- When discussing products, mention availability and pricing\n")
	b.WriteString("- For branch information, provide complete contact details\n")
	b.WriteString("- Suggest relevant blog posts when appropriate\n")
	b.WriteString("- Be concise but comprehensive in your responses\n")
	b.WriteString("- If you don't have specific information, politely let the user know")

	return b.String()
}

// writeCompanyInfo renders the grounding snapshot as labeled sections.
// Empty collections render an explicit "none available" line so the
// model does not invent catalog items.
func writeCompanyInfo(b *strings.Builder, snap domain.GroundingSnapshot) {
	b.WriteString("## LoveAmeriAfrikah Enterprises Overview\n")
	b.WriteString("We are a leading technology and logistics company serving Africa and America.\n\n")

	b.WriteString("### Our Products:\n")
	if len(snap.Products) == 0 {
		b.WriteString("No products available\n")
	}
	for _, p := range snap.Products {
		fmt.Fprintf(b, "- %s: %s (Price: $%.2f, Stock: %d)\n", p.Name, p.Description, p.Price, p.Stock)
	}

	b.WriteString("\n### Our Services:\n")
	if len(snap.Services) == 0 {
		b.WriteString("No services available\n")
	}
	for _, s := range snap.Services {
		fmt.Fprintf(b, "- %s: %s (Price: $%.2f)\n", s.Name, s.Description, s.Price)
	}

	b.WriteString("\n### Our Branches:\n")
	if len(snap.Branches) == 0 {
		b.WriteString("No branches listed\n")
	}
	for _, br := range snap.Branches {
		fmt.Fprintf(b, "- %s (%s, %s): %s | Phone: %s | Email: %s\n",
			br.Name, br.City, br.Country, br.Address, br.Phone, br.Email)
	}

	b.WriteString("\n### Our Team:\n")
	if len(snap.Team) == 0 {
		b.WriteString("Team information coming soon\n")
	}
	for _, t := range snap.Team {
		bio := t.Bio
		if strings.TrimSpace(bio) == "" {
			bio = "Team member"
		}
		fmt.Fprintf(b, "- %s (%s): %s\n", t.Name, t.Role, bio)
	}

	b.WriteString("\n### Latest Insights:\n")
	if len(snap.Posts) == 0 {
		b.WriteString("No blog posts available\n")
	}
	for _, p := range snap.Posts {
		fmt.Fprintf(b, "- %s: %s\n", p.Title, p.Excerpt)
	}
}
