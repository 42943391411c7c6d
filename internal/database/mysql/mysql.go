package mysql

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"DocTalk/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	dbInstance *gorm.DB
	once       sync.Once
	initErr    error
)

// GetDB 返回进程级唯一的 GORM 实例。首次调用按配置建立连接并设置连接池，
// 之后的调用直接复用同一个实例（以及首次初始化的错误）。
func GetDB(cfg *config.MySQLConfig) (*gorm.DB, error) {
	once.Do(func() {
		// 拼接 DSN。parseTime=True 让房间表的时间列直接映射为 time.Time。
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Address,
			cfg.Database,
		)

		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			initErr = fmt.Errorf("连接 MySQL 失败: %w", err)
			return
		}

		// 连接池参数来自配置，取底层 *sql.DB 设置。
		sqlDB, err := db.DB()
		if err != nil {
			initErr = fmt.Errorf("获取底层 *sql.DB 失败: %w", err)
			return
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

		log.Println("✅ MySQL 连接就绪")
		dbInstance = db
	})

	return dbInstance, initErr
}

// Close 关闭底层连接池。服务停机时调用一次。
func Close() error {
	if dbInstance == nil {
		return nil
	}
	sqlDB, err := dbInstance.DB()
	if err != nil {
		return fmt.Errorf("获取底层 *sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck 通过 Ping 验证连接仍然可用，供 /healthz 使用。
func HealthCheck(ctx context.Context) error {
	if dbInstance == nil {
		return fmt.Errorf("MySQL 尚未初始化")
	}
	sqlDB, err := dbInstance.DB()
	if err != nil {
		return fmt.Errorf("获取底层 *sql.DB 失败: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
