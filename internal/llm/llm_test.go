package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
	ctx  context.Context
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req, f.ctx = req, ctx
	return f.resp, f.err
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}}}
}

func TestCompleteMapsRolesAndDeterminism(t *testing.T) {
	f := &fakeCompleter{resp: reply("  Use an API key.  ")}
	c := &OpenAI{api: f, model: "llama3-8b-8192", timeout: time.Second}

	got, err := c.Complete(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "u1"},
		{Role: model.RoleAssistant, Content: "a1"},
		{Role: model.RoleUser, Content: "u2"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Use an API key." {
		t.Errorf("reply = %q", got)
	}
	wantRoles := []string{openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser}
	for i, m := range f.req.Messages {
		if m.Role != wantRoles[i] {
			t.Errorf("message %d role = %s, want %s", i, m.Role, wantRoles[i])
		}
	}
	if f.req.Model != "llama3-8b-8192" {
		t.Errorf("model = %s", f.req.Model)
	}
	if f.req.Temperature <= 0 || f.req.Temperature > 1e-30 {
		t.Errorf("temperature = %v, want effectively zero", f.req.Temperature)
	}
	if _, ok := f.ctx.Deadline(); !ok {
		t.Error("timeout not applied")
	}
}

func TestCompleteFailures(t *testing.T) {
	tests := map[string]*fakeCompleter{
		"transport":  {err: errors.New("connection reset")},
		"no choices": {resp: openai.ChatCompletionResponse{}},
		"blank":      {resp: reply("   ")},
	}
	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			c := &OpenAI{api: f, model: "m"}
			if _, err := c.Complete(context.Background(), nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewOpenAIValidates(t *testing.T) {
	if _, err := NewOpenAI(Config{Model: "m"}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewOpenAI(Config{APIKey: "k"}); err == nil {
		t.Error("expected error without model")
	}
	if _, err := NewOpenAI(Config{APIKey: "k", Model: "m", BaseURL: "https://api.groq.com/openai/v1"}); err != nil {
		t.Errorf("NewOpenAI: %v", err)
	}
}
