package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

const adviceToolName = "record_shot_advice"

// adviceSystemPrompt pins the answer shape: one call to the advice
// tool, every field present, in the configured language.
func adviceSystemPrompt(language string) string {
	return fmt.Sprintf(`You are a seasoned barista coaching a home user dialing in espresso on a single-boiler machine with a low/mid/high temperature setting.
Judge the shot from its numbers and flavor ratings. Be concrete and brief; suggest one change at a time.
Answer only in %s.
Answer only by calling the %s tool exactly once, with all four fields filled in.`, language, adviceToolName)
}

// adviceUserPrompt renders the shot the same way every time. Free-text
// notes stay out of the prompt.
func adviceUserPrompt(shot ShotRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bean: %s\n", shot.Bean)
	fmt.Fprintf(&b, "Dose: %.1f g\n", shot.DoseGrams)
	fmt.Fprintf(&b, "Yield: %.1f g (ratio 1:%.1f)\n", shot.YieldGrams, shot.Ratio())
	fmt.Fprintf(&b, "Extraction time: %d s\n", shot.TimeSec)
	fmt.Fprintf(&b, "Machine setting: %s\n", shot.Machine)
	fmt.Fprintf(&b, "Grind setting: %s\n", shot.Grind)
	fmt.Fprintf(&b, "Flavor ratings (1-5): sourness %d, bitterness %d, body %d, sweetness %d, overall %d\n",
		shot.Flavor.Sourness, shot.Flavor.Bitterness, shot.Flavor.Body,
		shot.Flavor.Sweetness, shot.Flavor.Overall)
	return b.String()
}

// adviceTool constrains the response to exactly the four strings of an
// AdviceResult.
func adviceTool() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name:        adviceToolName,
		Description: anthropic.String("Record the espresso shot critique."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"diagnosis": map[string]any{
					"type":        "string",
					"description": "What the numbers and flavor ratings say about this shot.",
				},
				"recommendation": map[string]any{
					"type":        "string",
					"description": "What to aim for on the next shot.",
				},
				"adjustment": map[string]any{
					"type":        "string",
					"description": "The single concrete change to make: grind, dose, yield or temperature.",
				},
				"explanation": map[string]any{
					"type":        "string",
					"description": "Why that change addresses the diagnosis.",
				},
			},
			Required: []string{"diagnosis", "recommendation", "adjustment", "explanation"},
		},
	}
}

// fallbackAdvice answers every advisory failure. The wording tells the
// user the shot itself is already saved and only the critique is
// missing.
func fallbackAdvice() AdviceResult {
	return AdviceResult{
		Diagnosis:      "The analysis service could not be reached.",
		Recommendation: "Keep this shot's parameters and request the analysis again later.",
		Adjustment:     "No adjustment suggested without an analysis.",
		Explanation:    "Your shot is saved in the journal. Only the AI critique is unavailable right now.",
	}
}

// RequestAdvice critiques a shot that is already in the journal. It
// never returns an error: failures are logged and answered with the
// fixed fallback.
func (a *Assistant) RequestAdvice(ctx context.Context, shot ShotRecord) AdviceResult {
	tool := adviceTool()
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: adviceSystemPrompt(a.language)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(adviceUserPrompt(shot))),
		},
		Tools: []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: adviceToolName},
		},
	})
	if err != nil {
		log.Printf("llm advice call failed error=%v", err)
		return fallbackAdvice()
	}

	advice, err := parseAdviceMessage(message)
	if err != nil {
		log.Printf("llm advice response rejected error=%v", err)
		return fallbackAdvice()
	}
	log.Printf("llm advice ok bean=%q tokens_in=%d tokens_out=%d",
		shot.Bean, message.Usage.InputTokens, message.Usage.OutputTokens)
	return advice
}

func parseAdviceMessage(message *anthropic.Message) (AdviceResult, error) {
	for _, block := range message.Content {
		if block.Type != "tool_use" || block.Name != adviceToolName {
			continue
		}

		data, err := json.Marshal(block.Input)
		if err != nil {
			return AdviceResult{}, fmt.Errorf("re-encode tool input: %w", err)
		}
		var advice AdviceResult
		if err := json.Unmarshal(data, &advice); err != nil {
			return AdviceResult{}, fmt.Errorf("decode tool input: %w", err)
		}

		for field, v := range map[string]string{
			"diagnosis":      advice.Diagnosis,
			"recommendation": advice.Recommendation,
			"adjustment":     advice.Adjustment,
			"explanation":    advice.Explanation,
		} {
			if strings.TrimSpace(v) == "" {
				return AdviceResult{}, fmt.Errorf("tool input missing %s", field)
			}
		}
		return advice, nil
	}
	return AdviceResult{}, fmt.Errorf("no %s tool call in response", adviceToolName)
}
