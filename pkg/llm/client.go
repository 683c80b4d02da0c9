// Package llm provides a client for the answer-generation collaborator.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/config"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// Client defines the interface for the generation collaborator.
// 检索核心把 query 与有序分块交给它，原样返回生成的答案文本；
// 提示词设计与模型调用细节都收敛在这个包里。
type Client interface {
	GenerateAnswer(ctx context.Context, query string, chunks []model.RetrievedChunk) (string, error)
}

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(cfg config.LLMConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const answerPromptTemplate = `Use the following context to answer the question.
If the answer is not in the context, say: "I don't have that information."

Context:
%s

Question:
%s`

// GenerateAnswer 组装上下文并调用 chat/completions 接口生成答案。
func (c *openAICompatibleClient) GenerateAnswer(ctx context.Context, query string, chunks []model.RetrievedChunk) (string, error) {
	log.Infof("[LLMClient] 开始生成答案, model: %s, context_chunks: %d", c.cfg.Model, len(chunks))

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(answerPromptTemplate, buildContext(chunks), query)},
		},
		Temperature: c.cfg.Temperature,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[LLMClient] 调用 LLM API 失败, error: %v", err)
		return "", fmt.Errorf("failed to call llm api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[LLMClient] LLM API 返回非 200 状态码: %s", resp.Status)
		return "", fmt.Errorf("llm api returned non-200 status: %s", resp.Status)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		log.Errorf("[LLMClient] 解析 LLM API 响应失败, error: %v", err)
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("llm api returned no choices")
	}

	answer := chatResp.Choices[0].Message.Content
	log.Infof("[LLMClient] 答案生成成功, 长度: %d 字符", len(answer))
	return answer, nil
}

// buildContext 将检索分块拼接为提示词中的上下文段落。
func buildContext(chunks []model.RetrievedChunk) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(chunk.Text)
	}
	return sb.String()
}
