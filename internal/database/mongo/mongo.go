package mongo

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"DocTalk/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	client  *mongo.Client
	once    sync.Once
	initErr error
)

// GetClient 返回进程级唯一的 MongoDB 客户端，承载各房间的对话记录。
// 首次调用建立连接并 Ping 验证，失败的结果同样被缓存。
func GetClient(cfg *config.MongoConfig) (*mongo.Client, error) {
	once.Do(func() {
		clientOptions := options.Client().ApplyURI(cfg.Address)
		// 本地环境可以不配认证，两项都给出时才启用。
		if cfg.Username != "" && cfg.Password != "" {
			clientOptions.SetAuth(options.Credential{
				Username: cfg.Username,
				Password: cfg.Password,
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			initErr = fmt.Errorf("连接 MongoDB 失败: %w", err)
			return
		}

		// Connect 不保证可达，Ping 一次确认。
		if err = c.Ping(ctx, nil); err != nil {
			initErr = fmt.Errorf("Ping MongoDB 失败: %w", err)
			return
		}

		log.Println("✅ MongoDB 连接就绪")
		client = c
	})

	return client, initErr
}

// Close 断开客户端连接。服务停机时调用一次。
func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// HealthCheck 通过 Ping 验证连接仍然可用，供 /healthz 使用。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MongoDB 尚未初始化")
	}
	return client.Ping(ctx, nil)
}
