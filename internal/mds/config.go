// Copyright 2023 The zmz Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mds

import (
	// standard libraries.
	"errors"

	// this project.
	"github.com/zmz/ceph/internal/mds/mdlog"
	"github.com/zmz/ceph/internal/primitive"
)

type Config struct {
	DataDir     string    `yaml:"data_dir"`
	MetricsPort int       `yaml:"metrics_port"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	// Enabled disables all journal writes when false; submissions degrade
	// to immediate success.
	Enabled bool `yaml:"enabled"`
	// MaxSegments and MaxEvents bound trimming; negative means unbounded.
	MaxSegments int   `yaml:"max_segments"`
	MaxEvents   int64 `yaml:"max_events"`
	// MaxConcurrentTrims caps in-flight segment expirability checks.
	MaxConcurrentTrims int `yaml:"max_concurrent_trims"`
	// ObjectPeriod is the target object size of the journal stream;
	// segment boundaries are aligned to it.
	ObjectPeriod int64 `yaml:"object_period"`
}

func (c *LogConfig) Options() []mdlog.Option {
	opts := []mdlog.Option{
		mdlog.WithEnabled(c.Enabled),
		mdlog.WithMaxSegments(c.MaxSegments),
		mdlog.WithMaxEvents(c.MaxEvents),
	}
	if c.MaxConcurrentTrims > 0 {
		opts = append(opts, mdlog.WithMaxTrimming(c.MaxConcurrentTrims))
	}
	return opts
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("mds: data_dir is required")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		MetricsPort: 2112,
		Log: LogConfig{
			Enabled:            true,
			MaxSegments:        32,
			MaxEvents:          -1,
			MaxConcurrentTrims: 4,
			ObjectPeriod:       4 * 1024 * 1024,
		},
	}
}

func InitConfig(filename string) (*Config, error) {
	c := defaultConfig()
	if err := primitive.LoadConfig(filename, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
