/*
Package ai generates the one-line market comment of a post with the Gemini
API. It is optional: the synthesizer falls back to a canned remark whenever
this package is disabled or fails.
*/
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/snagasawa/kabupost/internal/types"
)

var systemInstruction = `
あなたは日本株の高配当投資家向けにニュースを解説するアナリストです。

与えられたニュース（銘柄名・タイトル・概要）と判定済みのセンチメント
（positive / negative / neutral）をもとに、中長期の配当投資家の視点から
一文だけのコメントを書いてください。

制約:
- 必ず一文、全角60文字以内。
- センチメントと矛盾しないこと。判定を覆してはいけません。
- 断定的な売買推奨はしないこと。「可能性があります」「注視したい」など
  節度ある表現を使うこと。
- 価格目標や具体的な数値予想を出さないこと。
`

type commentResponse struct {
	Comment string `json:"comment"`
}

// GenerateComment asks the model for a single-sentence remark on the
// candidate. The sentiment has already been decided by keyword
// classification and is passed in, never overridden.
func GenerateComment(ctx context.Context, apiKey, modelName string, c types.Candidate, sentiment string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	prompt := fmt.Sprintf(
		"銘柄: %s (%s)\nセンチメント: %s\nタイトル: %s\n概要: %s",
		c.Name, c.Code, sentiment, c.Title, c.Summary,
	)

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{{Text: systemInstruction}},
			Role:  "system",
		},
		{
			Parts: []*genai.Part{{Text: prompt}},
			Role:  "user",
		},
	}

	resp, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   getResponseSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	respText := resp.Text()

	var parsed commentResponse
	if err := json.Unmarshal([]byte(respText), &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal gemini JSON response: %w. Raw text: %s", err, respText)
	}
	if parsed.Comment == "" {
		return "", fmt.Errorf("gemini returned an empty comment")
	}

	return parsed.Comment, nil
}

func getResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"comment": {
				Type:        genai.TypeString,
				Description: "中長期の配当投資家向けの一文コメント。",
			},
		},
		Required: []string{"comment"},
	}
}
