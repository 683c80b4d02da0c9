// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/chunker"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/config"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/extractor"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/handler"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/middleware"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/pipeline"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/repository"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/service"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/database"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/embedding"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/kafka"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/llm"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/storage"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与对象存储
	database.InitPostgres(cfg.Database.Postgres.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}
	producer := kafka.NewProducer(cfg.Kafka)

	// 4. 初始化 Repository
	docRepo := repository.NewDocumentRepository(database.DB)
	embeddingRepo := repository.NewEmbeddingRepository(database.DB)

	// 5. 初始化文档摄取管道
	ext := extractor.New()
	ck, err := chunker.New(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	if err != nil {
		log.Fatalf("分词器初始化失败: %v", err)
	}
	embeddingClient := embedding.NewClient(cfg.Embedding)
	embeddingStore := pipeline.NewEmbeddingStore(embeddingClient, embeddingRepo)
	processor := pipeline.NewProcessor(storageClient, ext, ck, embeddingStore, docRepo, cfg.Embedding.PricePerMTokens)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret)
	llmClient := llm.NewClient(cfg.LLM)
	documentService := service.NewDocumentService(docRepo, storageClient, producer, processor, ext)
	searchService := service.NewSearchService(embeddingStore, embeddingRepo, cfg.Pipeline.TopK)
	chatService := service.NewChatService(searchService, llmClient, cfg.Pipeline.TopK)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(jwtManager))
	{
		documents := apiV1.Group("/documents")
		{
			documentHandler := handler.NewDocumentHandler(documentService)
			documents.POST("/upload", documentHandler.Upload)
			documents.POST("/index", documentHandler.Index)
			documents.GET("", documentHandler.List)
			documents.GET("/:id", documentHandler.Get)
			documents.DELETE("/:id", documentHandler.Delete)
		}

		search := apiV1.Group("/search")
		{
			search.GET("", handler.NewSearchHandler(searchService).Search)
		}

		chat := apiV1.Group("/chat")
		{
			chat.POST("/ask", handler.NewChatHandler(chatService).Ask)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
