package cache

import (
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewReportCache builds the cache selected by report_cache.driver. When
// redis is unreachable the in-memory cache is used instead.
func NewReportCache(cfg config.ReportCacheConfig, redisCfg config.RedisConfig, logger *zap.Logger) ReportCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "none":
		return NopReportCache{}
	case "redis":
		rc, err := NewRedisReportCache(redisCfg)
		if err == nil {
			logger.Info("Report cache using Redis", zap.String("addr", redisCfg.Addr()))
			return rc
		}
		logger.Warn("Redis unavailable, falling back to in-memory report cache", zap.Error(err))
	}
	return NewInMemoryReportCache()
}
