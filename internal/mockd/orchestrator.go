package mockd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qslice/pipedeck/internal/domain"
)

// emitFunc delivers one pipeline event to the connected client.
type emitFunc func(eventType string, data map[string]any)

// orchestrator simulates the multi-agent routing pipeline: every turn
// hits the router first, then the classified specialist, with the same
// event grammar the real backend emits.
type orchestrator struct {
	stepDelay time.Duration

	mu      sync.Mutex
	history map[string][]domain.ChatMessage // conversationID → turns
}

func newOrchestrator(stepDelay time.Duration) *orchestrator {
	return &orchestrator{
		stepDelay: stepDelay,
		history:   make(map[string][]domain.ChatMessage),
	}
}

// result is the terminal state of one processed turn, used to build the
// done event.
type result struct {
	Response       string
	Agent          string
	Model          modelInfo
	Classification map[string]any
	LatencyMs      int
}

// process runs one user turn through router and specialist, emitting
// events along the way.
func (o *orchestrator) process(req domain.TurnRequest, emit emitFunc) result {
	start := time.Now()
	hasImage := req.Image != ""
	priorTurns := o.turnCount(req.ConversationID)

	step := func(eventType string, data map[string]any) {
		time.Sleep(o.stepDelay)
		emit(eventType, data)
	}

	// Router always runs first, on slice 1.
	step(domain.EventAgentStart, map[string]any{
		"agent":      "router",
		"model":      model1.Model,
		"qgpu_slice": model1.Slice,
	})
	classification := classify(req.Message, hasImage)
	routing := map[string]any{
		"model":      model1.Model,
		"qgpu_slice": model1.Slice,
		"latency_ms": 45,
	}
	for k, v := range classification {
		routing[k] = v
	}
	step(domain.EventRouting, routing)

	res := o.dispatch(req, classification, priorTurns, step)
	res.Classification = classification
	res.LatencyMs = int(time.Since(start).Milliseconds())

	o.remember(req.ConversationID, req.Message, res.Response)
	return res
}

func (o *orchestrator) dispatch(req domain.TurnRequest, classification map[string]any, priorTurns int, step emitFunc) result {
	category, _ := classification["category"].(string)
	msg := strings.ToLower(req.Message)

	switch category {
	case catEscalate:
		return o.escalate(step)
	case catClarify:
		return o.clarify(step)
	case catReturns:
		// Cancelling mid-conversation goes through the order tracker
		// first, which hands off to returns: the demo's reroute beat.
		if strings.Contains(msg, "cancel") && priorTurns > 0 {
			return o.cancelViaReroute(req, step)
		}
		return o.returns(req, step)
	case catProduct:
		return o.productAdvisor(req, step)
	default:
		return o.orderTracker(req, step)
	}
}

func (o *orchestrator) clarify(step emitFunc) result {
	text := "I'd like to help you! Could you tell me a bit more about what you need? " +
		"For example: order tracking, returns and refunds, or product advice."
	step(domain.EventResponse, map[string]any{
		"text":             text,
		"agent":            "router",
		"model":            model1.Model,
		"qgpu_slice":       model1.Slice,
		"total_latency_ms": 50,
	})
	return result{Response: text, Agent: "router", Model: model1}
}

func (o *orchestrator) escalate(step emitFunc) result {
	caseRef := "ESC-" + strings.ToUpper(uuid.New().String()[:6])
	text := fmt.Sprintf("I completely understand your frustration, and I sincerely apologize. "+
		"I'm escalating this to our senior support team right now — a supervisor will contact you "+
		"within 2 hours. Your case reference is %s.", caseRef)

	step(domain.EventAgentStart, map[string]any{
		"agent":      "escalation",
		"model":      model1.Model,
		"qgpu_slice": model1.Slice,
	})
	step(domain.EventResponse, map[string]any{
		"text":             text,
		"agent":            "escalation",
		"model":            model1.Model,
		"qgpu_slice":       model1.Slice,
		"total_latency_ms": 95,
	})
	return result{Response: text, Agent: "escalation", Model: model1}
}

func (o *orchestrator) orderTracker(req domain.TurnRequest, step emitFunc) result {
	o.switchSlice(model1, model2, step)
	o.agentStart("order_tracker", step)

	order := o.lookupOrder(req.CustomerID)
	step(domain.EventToolCall, map[string]any{
		"tool":   "get_order",
		"args":   map[string]any{"customer_id": req.CustomerID},
		"status": "executing",
	})
	step(domain.EventToolResult, map[string]any{
		"tool":       "get_order",
		"result":     order,
		"latency_ms": 18,
	})

	text := fmt.Sprintf("Your %v (%v) is %v — estimated arrival: %v.",
		order["item"], order["order_id"], order["status"], order["eta"])
	o.finishSpecialist("order_tracker", model2, text, 620, step)
	return result{Response: text, Agent: "order_tracker", Model: model2}
}

func (o *orchestrator) returns(req domain.TurnRequest, step emitFunc) result {
	o.switchSlice(model1, model2, step)
	o.agentStart("returns", step)

	order := o.lookupOrder(req.CustomerID)
	step(domain.EventToolCall, map[string]any{
		"tool":   "check_return_eligibility",
		"args":   map[string]any{"order_id": order["order_id"]},
		"status": "executing",
	})
	step(domain.EventToolResult, map[string]any{
		"tool":       "check_return_eligibility",
		"result":     map[string]any{"eligible": true, "free_pickup": true, "window_days": 14},
		"latency_ms": 22,
	})

	text := fmt.Sprintf("I've started a return for %v. You qualify for free pickup, "+
		"and your refund is issued once the courier scans the package.", order["order_id"])
	o.finishSpecialist("returns", model2, text, 540, step)
	return result{Response: text, Agent: "returns", Model: model2}
}

func (o *orchestrator) cancelViaReroute(req domain.TurnRequest, step emitFunc) result {
	o.switchSlice(model1, model2, step)
	o.agentStart("order_tracker", step)

	step(domain.EventReroute, map[string]any{
		"from":       "order_tracker",
		"to":         "returns",
		"from_model": model2.Model,
		"to_model":   model2.Model,
		"reason":     "customer wants to cancel, returns agent owns cancellations",
	})

	o.agentStart("returns", step)
	order := o.lookupOrder(req.CustomerID)
	text := fmt.Sprintf("Done — I've cancelled %v before it left the warehouse. "+
		"The full amount returns to your original payment method within 3 business days.", order["order_id"])
	o.finishSpecialist("returns", model2, text, 480, step)
	return result{Response: text, Agent: "returns", Model: model2}
}

func (o *orchestrator) productAdvisor(req domain.TurnRequest, step emitFunc) result {
	// Product advisor shares the router's slice, so no model_switch.
	o.agentStart("product_advisor", step)

	step(domain.EventThinking, map[string]any{
		"text": "Comparing panel type, peak brightness, and gaming features for the mentioned models. " +
			"Both are strong; picture processing and price tip the balance.",
	})
	step(domain.EventToolCall, map[string]any{
		"tool":   "search_products",
		"args":   map[string]any{"query": req.Message},
		"status": "executing",
	})
	step(domain.EventToolResult, map[string]any{
		"tool": "search_products",
		"result": []any{
			map[string]any{"name": "LG C4 OLED 55\"", "price": 1299},
			map[string]any{"name": "Samsung S90D 55\"", "price": 1249},
		},
		"latency_ms": 31,
	})

	text := "Both are excellent OLED panels. The LG C4 has the better gaming feature set, " +
		"while the S90D is brighter in HDR — for a mixed living room I'd lean LG C4."
	o.finishSpecialist("product_advisor", model1, text, 1850, step)
	return result{Response: text, Agent: "product_advisor", Model: model1}
}

// switchSlice emits the model_switch marker when a route crosses qGPU
// slices.
func (o *orchestrator) switchSlice(from, to modelInfo, step emitFunc) {
	if from.Slice == to.Slice {
		return
	}
	step(domain.EventModelSwitch, map[string]any{
		"from_model": from.Model,
		"from_slice": from.Slice,
		"to_model":   to.Model,
		"to_slice":   to.Slice,
	})
}

func (o *orchestrator) agentStart(agent string, step emitFunc) {
	info := modelFor(agent)
	step(domain.EventAgentStart, map[string]any{
		"agent":      agent,
		"model":      info.Model,
		"qgpu_slice": info.Slice,
	})
}

// finishSpecialist emits the cost and response tail every specialist
// shares.
func (o *orchestrator) finishSpecialist(agent string, info modelInfo, text string, latencyMs int, step emitFunc) {
	inputTokens := 180 + len(text)/4
	outputTokens := len(text) / 4
	step(domain.EventCost, map[string]any{
		"input_tokens":       inputTokens,
		"output_tokens":      outputTokens,
		"model":              info.Model,
		"estimated_cost_usd": float64(inputTokens+outputTokens) * 0.000001,
	})
	step(domain.EventResponse, map[string]any{
		"text":             text,
		"agent":            agent,
		"model":            info.Model,
		"qgpu_slice":       info.Slice,
		"total_latency_ms": latencyMs,
	})
}

func (o *orchestrator) lookupOrder(customerID string) map[string]any {
	if order, ok := demoOrders[customerID]; ok {
		return order
	}
	return demoOrders["C-1001"]
}

func (o *orchestrator) turnCount(conversationID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.history[conversationID])
}

func (o *orchestrator) remember(conversationID, user, assistant string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history[conversationID] = append(o.history[conversationID],
		domain.ChatMessage{Role: domain.RoleUser, Content: user},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: assistant},
	)
}
