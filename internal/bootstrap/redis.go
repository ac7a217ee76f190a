package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/target/dns-manager-ui/config"
)

// redisTopology says which client ConnectRedis builds.
type redisTopology string

const (
	redisStandalone redisTopology = "standalone"
	redisSentinel   redisTopology = "sentinel"
	redisCluster    redisTopology = "cluster"
)

// ConnectRedis builds the session store client for the configured topology
// and pings it.
//
//nolint:ireturn // the topology decides between single, failover and cluster clients.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, topology, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	if topology == redisCluster {
		// A single seed node still needs the cluster client.
		client = redis.NewClusterClient(opts.Cluster())
	} else {
		client = redis.NewUniversalClient(opts)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close redis client: %w", cerr))
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "redis connected",
			"topology", string(topology),
			"addrs", strings.Join(opts.Addrs, ","),
		)
	}
	return client, nil
}

// redisOptions maps REDIS_* settings onto go-redis options. REDIS_URI may be
// a redis:// or rediss:// URL or a bare host:port; sentinel and cluster node
// lists take precedence over it.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, redisTopology, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password}

	if cfg.UseSentinel {
		nodes := nonEmpty(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		opts.Addrs = nodes
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
		return opts, redisSentinel, nil
	}

	if err := applyRedisURI(opts, cfg.URI); err != nil {
		return nil, "", err
	}

	if cfg.UseCluster {
		if nodes := nonEmpty(cfg.ClusterNodes); len(nodes) > 0 {
			opts.Addrs = nodes
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		return opts, redisCluster, nil
	}

	if len(opts.Addrs) == 0 {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}
	return opts, redisStandalone, nil
}

// applyRedisURI fills the address, credentials, database and TLS settings
// carried by uri. A password in the URL overrides REDIS_PASSWORD.
func applyRedisURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
