package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/proto"

	"hostprompt/internal/observability"
)

// VertexConfig describes how to reach Gemini models through Vertex AI.
type VertexConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

// VertexClient calls GenerateContent on a Vertex AI publisher model.
type VertexClient struct {
	client *aiplatform.PredictionClient
	model  string
}

// NewVertexClient dials the regional Vertex endpoint.
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	project := strings.TrimSpace(cfg.ProjectID)
	location := strings.TrimSpace(cfg.Location)
	if project == "" || location == "" {
		return nil, fmt.Errorf("vertex: missing project/location")
	}
	model := normalizeModel(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}

	options := []option.ClientOption{option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", location))}
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		options = append(options, option.WithCredentialsFile(file))
	}

	client, err := aiplatform.NewPredictionClient(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("vertex: create client: %w", err)
	}
	return &VertexClient{
		client: client,
		model:  fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", project, location, model),
	}, nil
}

// Close releases the gRPC connection.
func (v *VertexClient) Close() error {
	return v.client.Close()
}

// ChatCompletion implements Client.
func (v *VertexClient) ChatCompletion(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	req := buildVertexRequest(v.model, messages, temperature, maxTokensFromContext(ctx))
	if override := ModelFromContext(ctx); override != "" {
		req.Model = replaceModelName(v.model, override)
	}
	if len(req.Contents) == 0 {
		return "", fmt.Errorf("vertex: missing user or assistant messages")
	}

	start := time.Now()
	resp, err := v.client.GenerateContent(ctx, req)
	observability.ObserveExternal("vertex", "generateContent", observability.StatusOf(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	return vertexText(resp)
}

func buildVertexRequest(model string, messages []ChatMessage, temperature float64, maxTokens int) *aiplatformpb.GenerateContentRequest {
	req := &aiplatformpb.GenerateContentRequest{
		Model: model,
		GenerationConfig: &aiplatformpb.GenerationConfig{
			Temperature: proto.Float32(float32(temperature)),
		},
	}
	if maxTokens > 0 {
		req.GenerationConfig.MaxOutputTokens = proto.Int32(int32(maxTokens))
	}

	var system []string
	for _, msg := range messages {
		role := "user"
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case RoleSystem:
			system = append(system, msg.Content)
			continue
		case RoleAssistant:
			role = "model"
		}
		req.Contents = append(req.Contents, &aiplatformpb.Content{
			Role:  role,
			Parts: []*aiplatformpb.Part{{Data: &aiplatformpb.Part_Text{Text: msg.Content}}},
		})
	}
	if len(system) > 0 {
		req.SystemInstruction = &aiplatformpb.Content{
			Parts: []*aiplatformpb.Part{{Data: &aiplatformpb.Part_Text{Text: strings.Join(system, "\n\n")}}},
		}
	}
	return req
}

func vertexText(resp *aiplatformpb.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.GetCandidates()) == 0 {
		return "", fmt.Errorf("vertex returned no candidates")
	}
	var parts []string
	for _, part := range resp.GetCandidates()[0].GetContent().GetParts() {
		if trimmed := strings.TrimSpace(part.GetText()); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("vertex candidate missing text")
	}
	return strings.Join(parts, "\n\n"), nil
}

func replaceModelName(resource, model string) string {
	idx := strings.LastIndex(resource, "/models/")
	if idx < 0 {
		return resource
	}
	return resource[:idx+len("/models/")] + model
}
