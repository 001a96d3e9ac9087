package domain

// Customer is a demo customer profile as listed by the backend.
type Customer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Language   string `json:"language,omitempty"`
	IsPremium  bool   `json:"is_premium,omitempty"`
}

// Scenario is a scripted demo interaction. Single-message scenarios set
// Message; multi-turn scenarios set Messages instead.
type Scenario struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Message     string   `json:"message,omitempty"`
	Messages    []string `json:"messages,omitempty"`
	CustomerID  string   `json:"customer_id"`
	Image       bool     `json:"image,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Turns returns the scripted messages in order, regardless of which
// field the scenario uses.
func (s Scenario) Turns() []string {
	if len(s.Messages) > 0 {
		return s.Messages
	}
	if s.Message != "" {
		return []string{s.Message}
	}
	return nil
}
