package ner

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"
	"unicode/utf8"

	openai "github.com/openai/openai-go/v3"
)

const systemPrompt = `
You are AZURA-NER, the entity extractor of a voice assistant.
Your ONLY job is to list the named entities of the user's sentence.

RULES:
1. Do NOT converse or answer the sentence.
2. Output ONLY JSON. No markdown.
3. Every "text" must be copied verbatim from the sentence.
4. List entities in the order they appear.

LABELS (OntoNotes):
- "GPE"    countries, cities, states
- "LOC"    other locations (mountains, rivers, regions)
- "DATE"   absolute or relative dates ("tomorrow", "on Monday")
- "TIME"   times of day ("7 pm", "in the evening")
- "PERSON" people
- "ORG"    organisations

OUTPUT FORMAT:
{"entities": [{"text": "<span>", "label": "<LABEL>"}]}

If there are no entities output {"entities": []}.
`

type llmEntities struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
}

// OpenAIExtractor asks a chat model for entities and anchors each returned
// span back onto the sentence.
type OpenAIExtractor struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIExtractor(client openai.Client, model string) *OpenAIExtractor {
	m := openai.ChatModel(model)
	if model == "" {
		m = openai.ChatModelGPT5Nano
	}
	return &OpenAIExtractor{client: client, model: m}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, sentence string) ([]Entity, error) {
	if strings.TrimSpace(sentence) == "" {
		return nil, nil
	}

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(sentence),
		},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty message content")
	}

	log.Debug("Extracted", "data", content)

	return parseLLMEntities(sentence, content)
}

func parseLLMEntities(sentence, content string) ([]Entity, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out llmEntities
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w (raw: %s)", err, content)
	}

	var ents []Entity
	from := 0
	for _, raw := range out.Entities {
		text := strings.TrimSpace(raw.Text)
		if text == "" || raw.Label == "" {
			continue
		}

		// Search after the previous match first so repeated spans keep
		// their order, then anywhere.
		start, end, ok := findFold(sentence, text, from)
		if !ok {
			start, end, ok = findFold(sentence, text, 0)
		}
		if !ok {
			log.Warn("Dropping entity not present in sentence", "text", text, "label", raw.Label)
			continue
		}

		ents = append(ents, Entity{
			Text:  sentence[start:end],
			Label: strings.ToUpper(raw.Label),
			Start: start,
			End:   end,
		})
		from = end
	}

	return ordered(ents), nil
}

// findFold returns the byte span of the first case-insensitive match of
// text in sentence at or after byte offset from. Spans always fall on rune
// boundaries of sentence.
func findFold(sentence, text string, from int) (int, int, bool) {
	n := utf8.RuneCountInString(text)
	for i := from; i < len(sentence); {
		end := i
		for k := 0; k < n && end < len(sentence); k++ {
			_, size := utf8.DecodeRuneInString(sentence[end:])
			end += size
		}
		if strings.EqualFold(sentence[i:end], text) {
			return i, end, true
		}
		_, size := utf8.DecodeRuneInString(sentence[i:])
		i += size
	}
	return 0, 0, false
}
