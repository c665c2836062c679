package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"google.golang.org/api/option"
)

// SymptomAnalysis is the structured result of the symptom checker
type SymptomAnalysis struct {
	Severity         string `json:"severity"` // Mild | Moderate | Severe
	MatchPercentages struct {
		Mild     int `json:"mild"`
		Moderate int `json:"moderate"`
		Severe   int `json:"severe"`
	} `json:"matchPercentages"`
	PossibleConditions []string `json:"possibleConditions"`
	Recommendations    []string `json:"recommendations"`
	Explanation        string   `json:"explanation"`
}

// AIService backs the doctor-bot chat and the symptom checker. The provider
// configuration is injected; there is no process-global client. Generation
// walks the configured Gemini model list in order, then falls back to OpenAI
// when a key is present. No retry happens beyond that chain.
type AIService struct {
	cfg          config.AIConfig
	geminiClient *genai.Client
	openaiClient *openai.Client
	logger       *slog.Logger
}

// NewAIService creates the AI service from injected configuration
func NewAIService(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*AIService, error) {
	s := &AIService{cfg: cfg, logger: logger}

	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
	}
	if cfg.OpenAIAPIKey != "" {
		s.openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
	}
	if s.geminiClient == nil && s.openaiClient == nil {
		return nil, apperrors.New(apperrors.ErrorTypeExternal, "NO_AI_PROVIDER",
			"no AI provider configured")
	}
	return s, nil
}

// Close releases the underlying client connections
func (s *AIService) Close() {
	if s.geminiClient != nil {
		_ = s.geminiClient.Close()
	}
}

func languagePrompt(language string) string {
	if language == "hi" {
		return "कृपया हिंदी में उत्तर दें।"
	}
	return "Please respond in English."
}

// ChatWithDoctor answers a free-text medical question in the requested
// language (en or hi)
func (s *AIService) ChatWithDoctor(ctx context.Context, message, language string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperrors.NewValidationError("message is required")
	}

	prompt := fmt.Sprintf(`You are a compassionate and knowledgeable medical doctor assistant.
Provide helpful, accurate medical information while being empathetic and professional.
Always recommend consulting with a real healthcare provider for serious concerns.
%s

User: %s`, languagePrompt(language), message)

	return s.generate(ctx, prompt, 0.7)
}

// AnalyzeSymptoms returns a structured severity assessment for free-text
// symptoms. When the model's output cannot be parsed as JSON, a conservative
// fallback carrying the raw text as explanation is returned instead of an
// error.
func (s *AIService) AnalyzeSymptoms(ctx context.Context, symptoms, language string) (*SymptomAnalysis, error) {
	if strings.TrimSpace(symptoms) == "" {
		return nil, apperrors.NewValidationError("symptoms are required")
	}

	prompt := fmt.Sprintf(`As a medical AI assistant, analyze the following symptoms and provide a structured response.
%s

Symptoms: %s

Please provide ONLY a valid JSON response with this exact structure:
{
  "severity": "Mild|Moderate|Severe",
  "matchPercentages": {
    "mild": number,
    "moderate": number,
    "severe": number
  },
  "possibleConditions": ["condition1", "condition2", ...],
  "recommendations": ["recommendation1", "recommendation2", ...],
  "explanation": "brief explanation"
}

IMPORTANT: Return ONLY the JSON object, no additional text, explanations, or markdown formatting.`,
		languagePrompt(language), symptoms)

	text, err := s.generate(ctx, prompt, 0.5)
	if err != nil {
		return nil, err
	}

	if analysis := extractAnalysis(text); analysis != nil {
		return analysis, nil
	}

	s.logger.Warn("Symptom analysis response was not valid JSON, using fallback")
	fallback := &SymptomAnalysis{
		Severity:           "Moderate",
		PossibleConditions: []string{"Please consult a healthcare provider for accurate diagnosis"},
		Recommendations:    []string{"Seek medical attention", "Monitor symptoms"},
		Explanation:        text,
	}
	fallback.MatchPercentages.Mild = 30
	fallback.MatchPercentages.Moderate = 50
	fallback.MatchPercentages.Severe = 20
	return fallback, nil
}

// generate walks the fallback chain: each configured Gemini model once, in
// order, then OpenAI.
func (s *AIService) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	var lastErr error

	if s.geminiClient != nil {
		for _, modelName := range s.cfg.Models {
			model := s.geminiClient.GenerativeModel(modelName)
			model.SetTemperature(temperature)
			model.SetTopK(40)
			model.SetTopP(0.95)

			resp, err := model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				lastErr = classifyAIError(err, modelName)
				s.logger.Warn("Gemini model failed, trying next",
					"model", modelName, "error", err)
				continue
			}
			if text := responseText(resp); text != "" {
				return text, nil
			}
			lastErr = apperrors.New(apperrors.ErrorTypeExternal, "EMPTY_RESPONSE",
				fmt.Sprintf("model %s returned no content", modelName))
		}
	}

	if s.openaiClient != nil {
		resp, err := s.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: openai.GPT4oMini,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: temperature,
		})
		if err != nil {
			lastErr = classifyAIError(err, "openai")
		} else if len(resp.Choices) > 0 {
			return resp.Choices[0].Message.Content, nil
		}
	}

	if lastErr == nil {
		lastErr = apperrors.New(apperrors.ErrorTypeExternal, "NO_AI_PROVIDER",
			"no AI provider configured")
	}
	return "", lastErr
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// classifyAIError maps provider errors onto the application taxonomy so
// callers can show quota and key problems distinctly.
func classifyAIError(err error, provider string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return apperrors.Wrap(err, apperrors.ErrorTypeRateLimit, "AI_QUOTA",
			fmt.Sprintf("%s quota exceeded", provider))
	case strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "permission"):
		return apperrors.Wrap(err, apperrors.ErrorTypeExternal, "AI_INVALID_KEY",
			fmt.Sprintf("%s API key rejected", provider))
	case strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout"):
		return apperrors.Wrap(err, apperrors.ErrorTypeTimeout, "AI_TIMEOUT",
			fmt.Sprintf("%s request timed out", provider))
	default:
		return apperrors.NewExternalAPIError(err, provider)
	}
}

var (
	jsonBlockRe     = regexp.MustCompile(`\{[\s\S]*\}`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// extractAnalysis pulls the JSON object out of a model response that may be
// wrapped in prose or markdown fences. Returns nil if nothing parseable is
// found.
func extractAnalysis(text string) *SymptomAnalysis {
	match := jsonBlockRe.FindString(text)
	if match == "" {
		return nil
	}
	cleaned := trailingCommaRe.ReplaceAllString(match, "$1")

	var analysis SymptomAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil
	}
	if analysis.Severity == "" {
		return nil
	}
	return &analysis
}
