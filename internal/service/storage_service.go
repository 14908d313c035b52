package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"practice_backend/internal/config"
	"practice_backend/internal/util"
	"practice_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 备份文件的存放位置
type StorageProvider interface {
	Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, name string) (io.ReadCloser, error)
	// List 按名称升序返回 prefix 下的对象
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// LocalStorageProvider 本地目录
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) path(name string) string {
	return filepath.Join(p.Config.LocalPath, filepath.FromSlash(name))
}

func (p *LocalStorageProvider) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error {
	dst := p.path(name)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, reader)
	return err
}

func (p *LocalStorageProvider) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(p.path(name))
}

func (p *LocalStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	root := p.Config.LocalPath
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	sort.Strings(names)
	return names, err
}

func (p *LocalStorageProvider) Delete(ctx context.Context, name string) error {
	return os.Remove(p.path(name))
}

// MinioStorageProvider MinIO 对象存储
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (p *MinioStorageProvider) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := p.Client.GetObject(ctx, p.Config.MinioBucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject 是惰性的，Stat 才会暴露对象不存在
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	return obj, nil
}

func (p *MinioStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range p.Client.ListObjects(ctx, p.Config.MinioBucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, obj.Key)
	}
	sort.Strings(names)
	return names, nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, name string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, name, minio.RemoveObjectOptions{})
}

// NewStorageProvider minio 初始化失败时回退到本地目录
func NewStorageProvider(cfg *config.Config) StorageProvider {
	if cfg.Storage.Type == util.StorageMinio {
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err == nil {
			return p
		}
		logger.Log.Warn("Failed to init minio storage, falling back to local", zap.Error(err))
	}
	return &LocalStorageProvider{Config: &cfg.Storage}
}
