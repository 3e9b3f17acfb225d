package google

import (
	"strconv"
	"strings"

	"google.golang.org/genai"

	ai "github.com/Holovkat/Auto-Claude"
)

// clientConfig selects the Gemini API or Vertex AI. Vertex is used when
// GOOGLE_GENAI_USE_VERTEXAI is true; it authenticates with application
// default credentials and needs GOOGLE_CLOUD_PROJECT.
func clientConfig(cfg ai.EngineConfig) (*genai.ClientConfig, error) {
	if useVertex, _ := strconv.ParseBool(strings.TrimSpace(cfg.Getenv("GOOGLE_GENAI_USE_VERTEXAI"))); useVertex {
		project := cfg.Getenv("GOOGLE_CLOUD_PROJECT")
		if project == "" {
			return nil, &ai.ConfigError{Field: "GOOGLE_CLOUD_PROJECT", Reason: "must be set when GOOGLE_GENAI_USE_VERTEXAI is true"}
		}
		location := cfg.Getenv("GOOGLE_CLOUD_LOCATION")
		if location == "" {
			location = "us-central1"
		}
		return &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  project,
			Location: location,
		}, nil
	}

	apiKey := cfg.Getenv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, &ai.ConfigError{Field: "GEMINI_API_KEY", Reason: "GEMINI_API_KEY or GOOGLE_API_KEY must be set"}
	}
	return &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, nil
}
