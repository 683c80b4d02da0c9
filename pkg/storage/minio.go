// Package storage 提供了与对象存储服务（MinIO）交互的功能。
//
// 客户端是显式构造、显式注入的句柄，不存在进程级单例；
// 编排器通过 Upload/Download/Delete/Exists 这组窄契约访问对象存储。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/config"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// Client 封装了单个存储桶上的对象操作。
type Client struct {
	minioClient *minio.Client
	bucketName  string
}

// NewClient 创建 MinIO 客户端并确保指定的存储桶存在。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.BucketName, err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.BucketName, err)
		}
	}

	log.Info("MinIO 客户端初始化成功")
	return &Client{minioClient: minioClient, bucketName: cfg.BucketName}, nil
}

// Upload 上传对象并返回其路径。
func (c *Client) Upload(ctx context.Context, data []byte, objectPath, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.minioClient.PutObject(ctx, c.bucketName, objectPath,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload object %q: %w", objectPath, err)
	}
	return objectPath, nil
}

// Download 将整个对象读入内存并返回其字节。
// 摄取流水线在提取前下载到临时缓冲区，处理结束即丢弃。
func (c *Client) Download(ctx context.Context, objectPath string) ([]byte, error) {
	object, err := c.minioClient.GetObject(ctx, c.bucketName, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", objectPath, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", objectPath, err)
	}
	return data, nil
}

// Delete 删除对象。对象不存在时同样返回成功。
func (c *Client) Delete(ctx context.Context, objectPath string) error {
	if err := c.minioClient.RemoveObject(ctx, c.bucketName, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", objectPath, err)
	}
	return nil
}

// Exists 判断对象是否存在。
func (c *Client) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := c.minioClient.StatObject(ctx, c.bucketName, objectPath, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", objectPath, err)
	}
	return true, nil
}
