package mockd

import "github.com/qslice/pipedeck/internal/domain"

// Model endpoints simulated by the mock orchestrator. Two models share
// one GPU via qGPU slicing; the router and product advisor ride the
// first slice, order tracking and returns the second.
type modelInfo struct {
	Model string
	Slice string
}

var (
	model1 = modelInfo{Model: "Qwen3-VL-8B", Slice: "Slice 1 (16GB)"}
	model2 = modelInfo{Model: "Qwen2.5-VL-7B", Slice: "Slice 2 (16GB)"}
)

// modelFor maps agents to their simulated endpoint.
func modelFor(agent string) modelInfo {
	switch agent {
	case "order_tracker", "returns":
		return model2
	default:
		return model1
	}
}

var demoCustomers = []domain.Customer{
	{CustomerID: "C-1001", Name: "Maria Ionescu", Language: "en", IsPremium: true},
	{CustomerID: "C-1002", Name: "Gábor Szabó", Language: "hu", IsPremium: false},
	{CustomerID: "C-1003", Name: "Elena Dimitrova", Language: "bg", IsPremium: false},
}

var demoScenarios = []domain.Scenario{
	{
		ID:          1,
		Name:        "Order Tracking (text)",
		Message:     "Where is my Samsung order?",
		CustomerID:  "C-1001",
		Description: "Routes to Order Tracker via Slice 2, finds in-transit Samsung order",
	},
	{
		ID:          2,
		Name:        "Order Tracking (image)",
		Message:     "Can you find this order?",
		CustomerID:  "C-1001",
		Image:       true,
		Description: "Vision: reads order ID from screenshot, routes to Order Tracker",
	},
	{
		ID:          3,
		Name:        "Return with Defect Photo",
		Message:     "I want to return this, it arrived broken",
		CustomerID:  "C-1003",
		Image:       true,
		Description: "Vision: analyzes damage photo, fast-tracks return with free pickup",
	},
	{
		ID:          4,
		Name:        "Product Comparison (thinking)",
		Message:     "Should I get the LG C4 OLED or Samsung S90D?",
		CustomerID:  "C-1001",
		Description: "Product Advisor with thinking mode, detailed comparison",
	},
	{
		ID:          5,
		Name:        "Product ID from Photo",
		Message:     "I have this at home, looking for a compatible case",
		CustomerID:  "C-1001",
		Image:       true,
		Description: "Vision: identifies phone from photo, searches compatible accessories",
	},
	{
		ID:          6,
		Name:        "Mid-conversation Reroute",
		Messages:    []string{"Where is my TV order?", "Actually I want to cancel it"},
		CustomerID:  "C-1001",
		Description: "Order Tracker -> reroute to Returns Agent, shows handoff",
	},
	{
		ID:          7,
		Name:        "Escalation",
		Message:     "I've called 5 times, nobody helps, I'm filing a complaint",
		CustomerID:  "C-1003",
		Description: "Detects frustration, escalates with case reference",
	},
}

var demoOrders = map[string]map[string]any{
	"C-1001": {
		"order_id": "ORD-78412",
		"item":     "Samsung 55\" QLED TV",
		"status":   "in_transit",
		"carrier":  "FastCourier",
		"eta":      "2 days",
	},
	"C-1002": {
		"order_id": "ORD-78866",
		"item":     "Lenovo ThinkPad X1",
		"status":   "processing",
		"eta":      "5 days",
	},
	"C-1003": {
		"order_id": "ORD-79023",
		"item":     "Phillips Air Fryer XXL",
		"status":   "delivered",
		"eta":      "delivered yesterday",
	},
}
