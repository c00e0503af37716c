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

package mdlog

import (
	// standard libraries.
	"time"
)

const (
	defaultMaxSegments = 32
	defaultMaxEvents   = int64(-1)
	defaultMaxTrimming = 4
	defaultTrimBudget  = 2 * time.Second
)

type config struct {
	// enabled gates all journal writes; a disabled journal degrades every
	// submission and flush to an immediate success.
	enabled bool

	// maxSegments and maxEvents are trimming targets; negative means
	// unbounded for that dimension.
	maxSegments int
	maxEvents   int64

	maxTrimming int
	trimBudget  time.Duration

	// rotateMargin is how far past the start of the current segment the
	// write position must be before a period crossing rolls a new segment;
	// zero means half an object period.
	rotateMargin int64
}

func defaultConfig() config {
	return config{
		enabled:     true,
		maxSegments: defaultMaxSegments,
		maxEvents:   defaultMaxEvents,
		maxTrimming: defaultMaxTrimming,
		trimBudget:  defaultTrimBudget,
	}
}

type Option func(*config)

func makeConfig(opts ...Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithEnabled(enabled bool) Option {
	return func(cfg *config) {
		cfg.enabled = enabled
	}
}

func WithMaxSegments(n int) Option {
	return func(cfg *config) {
		cfg.maxSegments = n
	}
}

func WithMaxEvents(n int64) Option {
	return func(cfg *config) {
		cfg.maxEvents = n
	}
}

func WithMaxTrimming(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxTrimming = n
		}
	}
}

func WithTrimBudget(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.trimBudget = d
		}
	}
}

func WithRotateMargin(n int64) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.rotateMargin = n
		}
	}
}
