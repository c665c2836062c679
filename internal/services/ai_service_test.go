package services

import (
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalwatch/vitalwatch/internal/apperrors"
)

func TestOpenAIFallbackModelResolves(t *testing.T) {
	// The fallback path requests this exact model; the constant only exists
	// in client versions that know the gpt-4o family.
	assert.Equal(t, "gpt-4o-mini", openai.GPT4oMini)
}

func TestExtractAnalysis_ParsesFencedJSON(t *testing.T) {
	text := "Here is the analysis:\n```json\n{\n  \"severity\": \"Moderate\",\n" +
		"  \"matchPercentages\": {\"mild\": 20, \"moderate\": 60, \"severe\": 20},\n" +
		"  \"possibleConditions\": [\"Influenza\"],\n" +
		"  \"recommendations\": [\"Rest\", \"Hydrate\"],\n" +
		"  \"explanation\": \"Fever with body aches.\"\n}\n```\nTake care."

	analysis := extractAnalysis(text)
	require.NotNil(t, analysis)
	assert.Equal(t, "Moderate", analysis.Severity)
	assert.Equal(t, 60, analysis.MatchPercentages.Moderate)
	assert.Equal(t, []string{"Influenza"}, analysis.PossibleConditions)
	assert.Len(t, analysis.Recommendations, 2)
}

func TestExtractAnalysis_ToleratesTrailingCommas(t *testing.T) {
	text := `{"severity": "Mild", "possibleConditions": ["Common cold",], "recommendations": ["Rest",],}`

	analysis := extractAnalysis(text)
	require.NotNil(t, analysis)
	assert.Equal(t, "Mild", analysis.Severity)
	assert.Equal(t, []string{"Common cold"}, analysis.PossibleConditions)
}

func TestExtractAnalysis_RejectsUnparseableText(t *testing.T) {
	assert.Nil(t, extractAnalysis("The model refused to answer."))
	assert.Nil(t, extractAnalysis("{not json at all"))
	assert.Nil(t, extractAnalysis(`{"recommendations": ["Rest"]}`)) // no severity
}

func TestClassifyAIError_MapsProviderFailures(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantType apperrors.ErrorType
		wantCode string
	}{
		{"quota", errors.New("googleapi: Error 429: quota exceeded"), apperrors.ErrorTypeRateLimit, "AI_QUOTA"},
		{"rate limit", errors.New("rate limit reached for requests"), apperrors.ErrorTypeRateLimit, "AI_QUOTA"},
		{"bad key", errors.New("API key not valid"), apperrors.ErrorTypeExternal, "AI_INVALID_KEY"},
		{"deadline", errors.New("context deadline exceeded"), apperrors.ErrorTypeTimeout, "AI_TIMEOUT"},
		{"other", errors.New("stream closed"), apperrors.ErrorTypeExternal, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyAIError(tc.err, "gemini")
			assert.True(t, apperrors.IsType(err, tc.wantType))
			if tc.wantCode != "" {
				var appErr *apperrors.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, tc.wantCode, appErr.Code)
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestLanguagePrompt(t *testing.T) {
	assert.Contains(t, languagePrompt("hi"), "हिंदी")
	assert.Contains(t, languagePrompt("en"), "English")
	assert.Contains(t, languagePrompt(""), "English")
}
