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

package object

const (
	objectFileExt     = ".obj"
	defaultObjectSize = 4 * 1024 * 1024
)

type config struct {
	objectSize int64
	ext        string
}

func defaultConfig() config {
	return config{
		objectSize: defaultObjectSize,
		ext:        objectFileExt,
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

func WithObjectSize(size int64) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.objectSize = size
		}
	}
}

func WithExtension(ext string) Option {
	return func(cfg *config) {
		cfg.ext = ext
	}
}
