package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// --- Task Categorization ---

// The four lunchbox food groups.
const (
	CategorySweets     = "🍪 Sweets"     // things you want to do
	CategoryVegetables = "🥦 Vegetables" // things you need to do
	CategorySavory     = "🥪 Savory"     // neutral but useful
	CategorySides      = "🧃 Sides"      // fillers and downtime
)

var categoryDescriptions = map[string]string{
	CategorySweets:     "Things you want to do - fun and enjoyable tasks",
	CategoryVegetables: "Things you need to do - important and necessary tasks",
	CategorySavory:     "Neutral but useful tasks - practical and productive",
	CategorySides:      "Extra fillers or downtime activities - light and easy",
}

// Keyword lists for the offline fallback, checked in this order.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategorySweets, []string{"fun", "enjoy", "play", "game", "hobby", "creative", "art", "music", "watch", "read"}},
	{CategoryVegetables, []string{"need", "must", "important", "urgent", "deadline", "work", "study", "homework", "project", "meeting"}},
	{CategorySavory, []string{"clean", "organize", "plan", "schedule", "exercise", "cook", "shop", "errand", "maintenance"}},
	{CategorySides, []string{"relax", "rest", "break", "social", "chat", "browse", "check", "quick", "simple"}},
}

// Categorizer assigns a task to one of the four food groups. It asks the
// hosted model first and falls back to keyword matching on any error or
// unrecognized reply.
type Categorizer struct {
	client  openai.Client
	model   string
	enabled bool
}

func newCategorizer(cfg GroqConfig) *Categorizer {
	c := &Categorizer{model: cfg.modelOrDefault()}
	if cfg.APIKey == "" {
		return c
	}
	c.client = openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.baseURLOrDefault()),
	)
	c.enabled = true
	return c
}

// Categorize never fails; the worst case is the keyword fallback's default.
func (c *Categorizer) Categorize(ctx context.Context, content string) string {
	if !c.enabled {
		return fallbackCategory(content)
	}
	category, err := c.askModel(ctx, content)
	if err != nil {
		logWarn("categorization call failed, using keyword fallback", "error", err)
		return fallbackCategory(content)
	}
	if _, ok := categoryDescriptions[category]; !ok {
		logDebug("model returned unknown category", "reply", category)
		return fallbackCategory(content)
	}
	return category
}

func (c *Categorizer) askModel(ctx context.Context, content string) (string, error) {
	var b strings.Builder
	b.WriteString("Categorize this task into one of these food categories:\n\n")
	for _, ck := range categoryKeywords {
		fmt.Fprintf(&b, "%s: %s\n", ck.category, categoryDescriptions[ck.category])
	}
	fmt.Fprintf(&b, "\nTask: %q\n\nRespond with ONLY the category name (e.g., %q).", content, CategorySweets)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(b.String())},
		MaxTokens:   openai.Int(16),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// fallbackCategory matches category keyword lists in fixed order, defaulting
// to Savory.
func fallbackCategory(content string) string {
	lower := strings.ToLower(content)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.category
			}
		}
	}
	return CategorySavory
}
