package mockd

import "strings"

// Intent categories produced by the mock router.
const (
	catOrderStatus = "ORDER_STATUS"
	catReturns     = "RETURNS"
	catProduct     = "PRODUCT_ADVISOR"
	catEscalate    = "ESCALATE"
	catClarify     = "CLARIFY"
)

var (
	orderKeywords    = []string{"order", "track", "delivery", "where is", "package", "shipping", "shipped", "status", "eta", "courier"}
	returnKeywords   = []string{"return", "refund", "broken", "defective", "damaged", "cancel", "warranty", "wrong item", "cracked"}
	productKeywords  = []string{"recommend", "compare", "suggest", "which", "should i", "buy", "compatible", "case for", "specs", "better", "vs", "or the"}
	escalateKeywords = []string{"lawyer", "legal", "complaint", "consumer protection", "sue", "called 5 times", "nobody helps", "filing"}
)

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// classify mimics the router model with keyword matching. Priority and
// confidence values follow the original demo: escalation first, returns
// before orders so "cancel" lands with the returns agent.
func classify(message string, hasImage bool) map[string]any {
	msg := strings.ToLower(message)

	category, confidence := catClarify, 0.50
	switch {
	case containsAny(msg, escalateKeywords):
		category, confidence = catEscalate, 0.98
	case containsAny(msg, returnKeywords):
		category, confidence = catReturns, 0.93
		if hasImage {
			confidence = 0.97
		}
	case containsAny(msg, productKeywords):
		category, confidence = catProduct, 0.96
		if hasImage {
			confidence = 0.88
		}
	case containsAny(msg, orderKeywords):
		category, confidence = catOrderStatus, 0.93
		if hasImage {
			confidence = 0.91
		}
	case hasImage:
		category, confidence = catProduct, 0.75
	}

	return map[string]any{
		"category":   category,
		"confidence": confidence,
		"language":   "en",
		"has_image":  hasImage,
	}
}
