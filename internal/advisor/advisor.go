// Package advisor produces the crop assistant's canned replies. Queries are
// routed by keyword to either a rich diagnosis or a short answer with a
// follow-up action. There is no model behind this: the reply set is fixed
// and the processing latency is simulated.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type WarningLevel string

const (
	WarningLow  WarningLevel = "low"
	WarningHigh WarningLevel = "high"
)

// SmartAction is a follow-up the host application can navigate to.
type SmartAction struct {
	Label string `json:"label"`
	Route string `json:"route"`
}

// Reply is one assistant answer. Rich replies carry a structured diagnosis
// instead of plain text.
type Reply struct {
	Text         string       `json:"text,omitempty"`
	Rich         bool         `json:"rich"`
	Problem      string       `json:"problem,omitempty"`
	Cause        string       `json:"cause,omitempty"`
	Actions      []string     `json:"actions,omitempty"`
	Prevention   []string     `json:"prevention,omitempty"`
	WarningLevel WarningLevel `json:"warning_level,omitempty"`
	SmartAction  *SmartAction `json:"smart_action,omitempty"`
}

type Advisor struct {
	delay    time.Duration
	language string
}

// New creates an advisor. delay simulates processing latency; zero makes
// Respond synchronous, which is what tests want.
func New(delay time.Duration, language string) *Advisor {
	if language == "" {
		language = "English"
	}
	return &Advisor{delay: delay, language: language}
}

// Respond answers a free-text query. It honors ctx while waiting out the
// configured delay.
func (a *Advisor) Respond(ctx context.Context, query string) (*Reply, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return a.classify(query), nil
}

func (a *Advisor) classify(query string) *Reply {
	lower := strings.ToLower(query)

	switch {
	case containsAny(lower, "disease", "sick"):
		return &Reply{
			Rich:         true,
			Problem:      "Leaf Blight Detected",
			Cause:        "Fungal infection exacerbated by high humidity.",
			Actions:      []string{"Remove infected leaves safely", "Apply copper-based fungicide"},
			Prevention:   []string{"Improve air circulation", "Avoid overhead watering"},
			WarningLevel: WarningHigh,
		}
	case containsAny(lower, "fertilizer", "soil"):
		return &Reply{
			Text:        "Based on your recent soil scan, you should apply NPK 10-20-10. Do you want to open the detailed Fertilizer Guide?",
			SmartAction: &SmartAction{Label: "Apply Fertilizer Guide", Route: "fertilizerAI"},
		}
	case containsAny(lower, "price", "market"):
		return &Reply{
			Text:        "The current market price for Wheat has gone up by 5% today in your local mandi.",
			SmartAction: &SmartAction{Label: "View Market Prices", Route: "/marketplace"},
		}
	case containsAny(lower, "yield", "analytics"):
		return &Reply{
			Text:        "Your health reports are generated and ready to view.",
			SmartAction: &SmartAction{Label: "Check Crop Analytics", Route: "/insights"},
		}
	default:
		return &Reply{
			Text: fmt.Sprintf("I have received your query about %q. As an AI, I am processing this in %s.", query, a.language),
		}
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
