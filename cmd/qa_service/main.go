package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"DocTalk/internal/config"
	milvusdb "DocTalk/internal/database/milvus"
	miniodb "DocTalk/internal/database/minio"
	mongodb "DocTalk/internal/database/mongo"
	mysqldb "DocTalk/internal/database/mysql"
	"DocTalk/internal/embedding"
	"DocTalk/internal/llm"
	"DocTalk/internal/models"
	"DocTalk/internal/qa_service/api"
	"DocTalk/internal/qa_service/cache"
	"DocTalk/internal/qa_service/rag/embeddings"
	"DocTalk/internal/qa_service/rag/extractors"
	"DocTalk/internal/qa_service/rag/pipeline"
	"DocTalk/internal/qa_service/rag/splitters"
	"DocTalk/internal/qa_service/rag/storages/vectorstore"
	"DocTalk/internal/qa_service/service"
	"DocTalk/internal/qa_service/store"
	"DocTalk/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	// .env 仅用于本地开发的密钥注入，不存在时忽略。
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name, "")
	appLogger.Info("Starting QA Service...")

	ctx := context.Background()

	// 3. 初始化数据库连接
	db, err := mysqldb.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("连接 MySQL 失败: %v", err))
	}
	if err := db.AutoMigrate(&models.Room{}); err != nil {
		appLogger.Fatal(fmt.Sprintf("迁移 rooms 表失败: %v", err))
	}

	mongoClient, err := mongodb.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("连接 MongoDB 失败: %v", err))
	}

	milvusClient, err := milvusdb.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("连接 Milvus 失败: %v", err))
	}
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		appLogger.Fatal(fmt.Sprintf("初始化 Milvus 集合失败: %v", err))
	}

	minioClient, err := miniodb.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("连接 MinIO 失败: %v", err))
	}
	if err := miniodb.EnsureBucket(ctx, &cfg.Databases.MinIO); err != nil {
		appLogger.Fatal(fmt.Sprintf("初始化 MinIO 存储桶失败: %v", err))
	}

	// 4. 构建存储层
	roomStore := store.NewRoomStore(db, *appLogger)
	chatStore := store.NewMongoChatStore(mongoClient, cfg.Databases.MongoDB.Database, cfg.Databases.MongoDB.Collection, *appLogger)
	if err := chatStore.EnsureIndexes(ctx); err != nil {
		appLogger.Fatal(fmt.Sprintf("创建 MongoDB 索引失败: %v", err))
	}
	pdfStore := store.NewPDFStore(minioClient, cfg.Databases.MinIO.Bucket, *appLogger)

	// 5. 构建模型客户端与 RAG 流水线
	embeddingClient, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("创建 Embedding 客户端失败: %v", err))
	}
	embedder := embeddings.NewAdapter(embeddingClient)

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("创建 LLM 客户端失败: %v", err))
	}

	vectorStore, err := vectorstore.NewMilvusStore(milvusClient, cfg.RAG.EmbeddingDim, *appLogger)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("创建向量存储失败: %v", err))
	}

	splitter := splitters.NewRecursiveCharacterSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	extractor := extractors.NewPDFExtractor()

	textCache, err := cache.NewTextCache(cfg.RAG.TextCacheDir, extractor, *appLogger)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("初始化文本缓存失败: %v", err))
	}

	ingestor := pipeline.NewIngestionPipeline(splitter, embedder, vectorStore, cfg.RAG.BatchSize, cfg.RAG.EmbeddingDim, *appLogger)
	answerer := pipeline.NewAnswerPipeline(embedder, vectorStore, llmClient, chatStore, cfg.RAG.TopK, *appLogger)

	// 6. 组装服务与路由
	svc := service.New(roomStore, chatStore, pdfStore, textCache, ingestor, answerer, vectorStore, *appLogger)

	healthCheck := func(ctx context.Context) error {
		if err := mysqldb.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mysql: %w", err)
		}
		if err := mongodb.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
		if err := milvusClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("milvus: %w", err)
		}
		if err := miniodb.HealthCheck(ctx); err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		return nil
	}

	handler := api.NewHandler(svc, healthCheck, *appLogger)
	router := api.SetupRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	// 7. 启动 HTTP 服务
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(fmt.Sprintf("HTTP 服务异常退出: %v", err))
		}
	}()

	// 8. 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("HTTP 服务关闭失败: %v", err))
	}

	if err := mongodb.Close(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("关闭 MongoDB 连接失败: %v", err))
	}
	if err := mysqldb.Close(); err != nil {
		appLogger.Error(fmt.Sprintf("关闭 MySQL 连接失败: %v", err))
	}
	milvusClient.Close()
	miniodb.Close()

	appLogger.Info("Server gracefully stopped")
}
