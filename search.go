package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// The web-search tool cannot be combined with a constrained response
// shape, so the reply arrives as prose with citations and the recipe
// object has to be fished out of it. The two fixed descriptions below
// keep the two parse failures distinguishable from each other and from
// a transport failure, whose description carries the error itself.
const (
	searchUnreadableDescription = "The search reply did not contain a readable recipe."
	searchProcessingDescription = "The search reply could not be processed."
)

const placeholderSourceTitle = "Untitled source"

func searchSystemPrompt() string {
	return `You are an espresso recipe researcher.
Search the web for a published espresso recipe for the coffee the user names: dose in grams, yield in grams, extraction time in seconds, water temperature, and a machine temperature setting.
Prefer the roaster's own recipe, then well-regarded community recipes.
Reply with a single JSON object and nothing else, shaped like:
{"found": true, "dose": 18, "yield": 36, "time": 27, "temperature": "93C", "machine_setting": "mid", "description": "one short paragraph on the recipe and where it comes from"}
"machine_setting" must be "low", "mid" or "high" (low = coolest).
Omit any field you could not find. If no usable recipe turns up, reply {"found": false, "description": "why"}.`
}

// searchPayload is the object the model is asked to emit.
type searchPayload struct {
	Found          bool     `json:"found"`
	Dose           *float64 `json:"dose"`
	Yield          *float64 `json:"yield"`
	Time           *float64 `json:"time"`
	Temperature    *string  `json:"temperature"`
	MachineSetting *string  `json:"machine_setting"`
	Description    *string  `json:"description"`
}

type parseOutcome int

const (
	parseOK parseOutcome = iota
	parseNoObject
	parseInvalidJSON
)

// extractJSONObject returns the span from the first '{' through the
// last '}' so prose or markdown fences around the object don't matter.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// parseRecipePayload reports exactly one of three outcomes: no object
// in the text, an object that is not valid JSON, or a decoded payload.
func parseRecipePayload(text string) (searchPayload, parseOutcome) {
	span, ok := extractJSONObject(text)
	if !ok {
		return searchPayload{}, parseNoObject
	}
	var p searchPayload
	if err := json.Unmarshal([]byte(span), &p); err != nil {
		return searchPayload{}, parseInvalidJSON
	}
	return p, parseOK
}

// recommendationFrom merges the parsed payload with the collected
// citation sources. Parse failures still carry the sources; fields the
// model omitted stay absent.
func recommendationFrom(text string, sources []RecipeSource) SearchRecommendation {
	payload, outcome := parseRecipePayload(text)
	switch outcome {
	case parseNoObject:
		return SearchRecommendation{Description: searchUnreadableDescription, Sources: sources}
	case parseInvalidJSON:
		return SearchRecommendation{Description: searchProcessingDescription, Sources: sources}
	}

	rec := SearchRecommendation{
		Found:      payload.Found,
		DoseGrams:  payload.Dose,
		YieldGrams: payload.Yield,
		Sources:    sources,
	}
	if payload.Time != nil {
		sec := int(math.Round(*payload.Time))
		rec.TimeSec = &sec
	}
	if payload.Temperature != nil && strings.TrimSpace(*payload.Temperature) != "" {
		rec.Temperature = payload.Temperature
	}
	if payload.MachineSetting != nil {
		m := MachineSetting(strings.ToLower(strings.TrimSpace(*payload.MachineSetting)))
		if ValidMachineSetting(m) {
			rec.Machine = &m
		}
	}
	if payload.Description != nil {
		rec.Description = *payload.Description
	}
	return rec
}

// textAndSources walks the response once, concatenating the text
// blocks and collecting their citations in order. Citations without a
// URI are dropped, duplicates are dropped, and a missing title gets
// the placeholder.
func textAndSources(message *anthropic.Message) (string, []RecipeSource) {
	var sb strings.Builder
	var sources []RecipeSource
	seen := make(map[string]bool)
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		sb.WriteString(block.Text)
		for _, c := range block.Citations {
			uri := strings.TrimSpace(c.URL)
			if uri == "" || seen[uri] {
				continue
			}
			seen[uri] = true
			title := strings.TrimSpace(c.Title)
			if title == "" {
				title = placeholderSourceTitle
			}
			sources = append(sources, RecipeSource{Title: title, URI: uri})
		}
	}
	return sb.String(), sources
}

// RequestSearch looks up a recipe for the named bean or roaster. It
// never returns an error: transport failures come back as found=false
// with the error in the description and no sources.
func (a *Assistant) RequestSearch(ctx context.Context, query string) SearchRecommendation {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchRecommendation{Description: "The search query is empty."}
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: searchSystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Find an espresso recipe for: " + query)),
		},
		Tools: []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(a.searchUses),
			},
		}},
	})
	if err != nil {
		log.Printf("llm search call failed query=%q error=%v", query, err)
		return SearchRecommendation{Description: fmt.Sprintf("The recipe search failed: %v", err)}
	}

	text, sources := textAndSources(message)
	rec := recommendationFrom(text, sources)
	log.Printf("llm search done query=%q found=%v sources=%d tokens_in=%d tokens_out=%d",
		query, rec.Found, len(rec.Sources), message.Usage.InputTokens, message.Usage.OutputTokens)
	return rec
}
