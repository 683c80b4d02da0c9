// Package database 负责初始化数据库连接。
package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

var DB *gorm.DB

// InitPostgres 初始化 PostgreSQL 连接，启用 pgvector 扩展并迁移表结构。
// embeddings 表通过外键级联删除依附于 documents 表。
func InitPostgres(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database", err)
	}

	// 相似度检索依赖 pgvector 的距离运算符，扩展必须先于建表存在。
	if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatal("failed to create pgvector extension", err)
	}

	if err := DB.AutoMigrate(&model.Document{}, &model.Embedding{}); err != nil {
		log.Fatal("failed to migrate database schema", err)
	}

	// 配置连接池
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("PostgreSQL database connected successfully")
}
