package service

import (
	"context"
	"fmt"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/llm"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// noContextAnswer 在检索不到任何相关分块时直接返回，不调用大模型。
const noContextAnswer = "I don't have any relevant information in the knowledge base to answer that question."

// ChatService 接口定义了基于知识库的问答操作。
type ChatService interface {
	Ask(ctx context.Context, query string, userID uint) (*model.AskResponse, error)
}

type chatService struct {
	searchService SearchService
	llmClient     llm.Client
	topK          int
}

// NewChatService 创建一个新的 ChatService 实例。
// topK 传 0 或负数时回落为 5。
func NewChatService(searchService SearchService, llmClient llm.Client, topK int) ChatService {
	if topK <= 0 {
		topK = 5
	}
	return &chatService{
		searchService: searchService,
		llmClient:     llmClient,
		topK:          topK,
	}
}

// Ask 检索用户知识库中最相关的分块并据此生成回答。
func (s *chatService) Ask(ctx context.Context, query string, userID uint) (*model.AskResponse, error) {
	log.Infof("[ChatService] 收到提问, userID: %d, query: '%s'", userID, query)

	chunks, err := s.searchService.Retrieve(ctx, query, userID, s.topK)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		log.Infof("[ChatService] 未检索到相关分块, 返回固定回答")
		return &model.AskResponse{
			Answer:  noContextAnswer,
			Sources: []model.RetrievedChunk{},
		}, nil
	}

	answer, err := s.llmClient.GenerateAnswer(ctx, query, chunks)
	if err != nil {
		log.Errorf("[ChatService] 生成回答失败: %v", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrLLMService, err)
	}

	log.Infof("[ChatService] 回答生成完毕, 引用 %d 条分块", len(chunks))
	return &model.AskResponse{
		Answer:  answer,
		Sources: chunks,
	}, nil
}
