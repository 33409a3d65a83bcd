package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/codessa-project/inkwell/internal/models"
)

// --- Reflection Model Prompts ---
const ReflectionSystemPrompt = "You are Codessa's Reflection Agent. Your task is to analyze a raw engineering note and extract structured insight from it. You must output your response as a single valid JSON object."
const ReflectionUserPrompt = `Analyze the following raw note and extract structured insight from it.

Follow these rules precisely:
1.  Write a "summary": one or two sentences capturing what the note is about.
2.  List "topics": the subjects or themes the note touches.
3.  List "tools": any technologies, products, or systems the note mentions.
4.  List "actions": concrete follow-up actions the note implies, if any.
5.  List "enhancements": improvement ideas the note suggests, if any.
6.  The final output MUST be a single, valid JSON object with exactly the keys "summary", "topics", "tools", "actions", and "enhancements". Use empty arrays when nothing applies. Do not include any text before or after the JSON object.

Raw note:
`

// ParseTimeout bounds a single model call. A scroll that cannot be parsed
// in this window falls back to default content rather than blocking capture.
const ParseTimeout = 20 * time.Second

// ReflectionParser extracts structured content from raw scroll text using
// a Gemini model on Vertex AI. It implements services.Parser.
type ReflectionParser struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewReflectionParser creates a parser with a pre-configured reflection model.
func NewReflectionParser(ctx context.Context, projectID, region, modelName string) (*ReflectionParser, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewReflectionParser: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ReflectionSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		// Force JSON output so the response unmarshals without cleanup.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &ReflectionParser{model: model, baseClient: baseClient}, nil
}

// Parse sends the raw text to the reflection model and decodes its JSON
// response. Callers treat any error as "use fallback content".
func (p *ReflectionParser) Parse(ctx context.Context, rawText string) (*models.ParsedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, ParseTimeout)
	defer cancel()

	resp, err := p.model.GenerateContent(ctx, genai.Text(ReflectionUserPrompt+rawText))
	if err != nil {
		return nil, fmt.Errorf("reflection model call failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	var parsed models.ParsedContent
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode reflection response: %w", err)
	}
	return &parsed, nil
}

func (p *ReflectionParser) Close() error {
	if p.baseClient != nil {
		return p.baseClient.Close()
	}
	return nil
}

// extractText pulls the text payload out of a model response and strips
// any backtick fences the model may wrap around it despite the JSON
// response MIME type.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("received an empty response from the model")
	}

	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part type %T", part)
	}

	cleaned := strings.TrimSpace(string(text))
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned), nil
}
