package usecases

import (
	"fmt"
	"strings"

	"recovery-kita.backend/internal/domain/entities"
)

// Default dunning templates by retry attempt, used when the merchant has
// not customized one. Bodies carry the same token whitelist as custom
// templates: {{customer_name}}, {{amount}}, {{update_url}}.
var defaultDunningTemplates = map[int64]entities.EmailTemplate{
	1: {
		Subject: "Your payment didn't go through",
		Body: `<p>Hi {{customer_name}},</p>
<p>We couldn't process your payment of {{amount}}. This usually happens when a card expires or funds are low.</p>
<p><a href="{{update_url}}">Update your payment details</a> to keep your subscription active.</p>`,
	},
	2: {
		Subject: "Second notice: payment still failing",
		Body: `<p>Hi {{customer_name}},</p>
<p>Your payment of {{amount}} is still failing. Please <a href="{{update_url}}">update your payment method</a> to avoid interruption.</p>`,
	},
	3: {
		Subject: "Final notice before cancellation",
		Body: `<p>Hi {{customer_name}},</p>
<p>This is the last reminder about your outstanding payment of {{amount}}. Without an update your subscription will be cancelled.</p>
<p><a href="{{update_url}}">Update payment details now</a></p>`,
	},
}

func defaultTemplateFor(attempt int64) entities.EmailTemplate {
	if tpl, ok := defaultDunningTemplates[attempt]; ok {
		return tpl
	}
	return defaultDunningTemplates[3]
}

// renderTemplate substitutes the whitelisted tokens. Unknown {{...}}
// sequences pass through untouched.
func renderTemplate(body, customerName, amount, updateURL string) string {
	r := strings.NewReplacer(
		"{{customer_name}}", customerName,
		"{{amount}}", amount,
		"{{update_url}}", updateURL,
	)
	return r.Replace(body)
}

// formatAmount renders invoice cents as "12.34 EUR".
func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}

// htmlToText is the plaintext fallback of an HTML body: tags stripped,
// block boundaries folded to newlines.
func htmlToText(html string) string {
	replaced := strings.NewReplacer("</p>", "\n", "<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(html)
	var b strings.Builder
	inTag := false
	for _, r := range replaced {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
