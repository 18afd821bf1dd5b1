// Package etcd registers the API process in etcd and lets the UI find it.
package etcd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// APIServiceName 是 API 进程注册时使用的服务名。
const APIServiceName = "eda-api"

// Key 返回服务实例的键：/services/<name>/<addr>。
func Key(serviceName, addr string) string {
	return Prefix(serviceName) + addr
}

// Prefix 返回服务的键前缀。
func Prefix(serviceName string) string {
	return "/services/" + serviceName + "/"
}

// ServiceDiscovery 基于 etcd 租约实现注册与发现。
type ServiceDiscovery struct {
	cli *clientv3.Client
}

// NewServiceDiscovery creates a new ServiceDiscovery.
func NewServiceDiscovery(endpoints []string) (*ServiceDiscovery, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 etcd: %w", err)
	}
	return &ServiceDiscovery{cli: cli}, nil
}

// Register 以 ttl 秒的租约注册实例，ctx 结束时停止续约并删除键。
func (s *ServiceDiscovery) Register(ctx context.Context, serviceName, url string, ttl int64) error {
	if ttl <= 0 {
		ttl = 10
	}
	lease, err := s.cli.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("申请 etcd 租约失败: %w", err)
	}
	key := Key(serviceName, url)
	if _, err := s.cli.Put(ctx, key, url, clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("注册服务失败: %w", err)
	}
	keepAlive, err := s.cli.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("续约失败: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				revokeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if _, err := s.cli.Revoke(revokeCtx, lease.ID); err != nil {
					logrus.WithError(err).Warn("etcd lease revoke failed")
				}
				return
			case _, ok := <-keepAlive:
				if !ok {
					logrus.WithField("key", key).Warn("etcd lease lost")
					return
				}
			}
		}
	}()
	logrus.WithFields(logrus.Fields{"service": serviceName, "url": url}).Info("registered in etcd")
	return nil
}

// Discover 返回服务的全部实例地址，按字典序排列。
func (s *ServiceDiscovery) Discover(ctx context.Context, serviceName string) ([]string, error) {
	resp, err := s.cli.Get(ctx, Prefix(serviceName), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	addrs := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}
	sort.Strings(addrs)
	return addrs, nil
}

// Close closes the etcd client.
func (s *ServiceDiscovery) Close() error {
	return s.cli.Close()
}

// Discoverer 是 Discover 的抽象，便于替换。
type Discoverer interface {
	Discover(ctx context.Context, serviceName string) ([]string, error)
}

// ResolveURL 返回第一个已注册的实例，没有实例或出错时返回 fallback。
func ResolveURL(ctx context.Context, d Discoverer, serviceName, fallback string) string {
	if d == nil {
		return fallback
	}
	addrs, err := d.Discover(ctx, serviceName)
	if err != nil || len(addrs) == 0 {
		if err != nil {
			logrus.WithError(err).Warn("etcd discovery failed, using configured URL")
		}
		return fallback
	}
	return addrs[0]
}
