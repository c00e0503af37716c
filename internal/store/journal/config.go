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

package journal

import (
	// this project.
	"github.com/zmz/ceph/internal/store/journal/object"
)

type config struct {
	objectSize int64
}

func (cfg *config) objectOptions() []object.Option {
	var opts []object.Option
	if cfg.objectSize != 0 {
		opts = append(opts, object.WithObjectSize(cfg.objectSize))
	}
	return opts
}

func defaultConfig() config {
	return config{}
}

type Option func(*config)

func makeConfig(opts ...Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithObjectSize sets the period of the underlying object files.
func WithObjectSize(size int64) Option {
	return func(cfg *config) {
		cfg.objectSize = size
	}
}
