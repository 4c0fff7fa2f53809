package config

import (
	"errors"
	"fmt"
)

// Validate 检查配置可用性
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path must be set for the sqlite driver")
		}
	case "postgres":
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Verify.POIRadiusM <= 0 {
		return errors.New("verify.poi_radius_m must be positive")
	}
	if c.Verify.FOVDeg <= 0 || c.Verify.FOVDeg > 360 {
		return errors.New("verify.fov_deg must be in (0, 360]")
	}
	if c.Pipeline.SampleIntervalS <= 0 {
		return errors.New("pipeline.sample_interval_s must be positive")
	}
	if c.Server.RateLimitEnabled && c.Server.RateLimitQPS <= 0 {
		return errors.New("server.rate_limit_qps must be positive when rate limiting is enabled")
	}
	return nil
}
