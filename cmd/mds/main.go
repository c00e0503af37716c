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

package main

import (
	// standard libraries.
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// third-party libraries.
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// this project.
	"github.com/zmz/ceph/internal/mds"
	"github.com/zmz/ceph/observability/log"
	"github.com/zmz/ceph/observability/metrics"
)

var configPath = flag.String("config", "./config/mds.yaml", "the configuration file of the mds")

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg, err := mds.InitConfig(*configPath)
	if err != nil {
		log.Error(ctx, "Init config failed.", map[string]interface{}{
			log.KeyError: err,
		})
		os.Exit(-1)
	}

	bootID := uuid.NewString()
	log.Info(ctx, "MDS booting.", map[string]interface{}{
		"boot_id":  bootID,
		"data_dir": cfg.DataDir,
	})

	metrics.RegisterMDSLogMetrics()
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err2 := http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), nil); err2 != nil {
			log.Warning(ctx, "Metrics endpoint stopped.", map[string]interface{}{
				log.KeyError: err2,
			})
		}
	}()

	srv, err := mds.NewServer(cfg)
	if err != nil {
		log.Error(ctx, "Create server failed.", map[string]interface{}{
			log.KeyError: err,
		})
		os.Exit(-1)
	}

	if err = srv.Boot(ctx); err != nil {
		log.Error(ctx, "Boot failed.", map[string]interface{}{
			log.KeyError: err,
		})
		os.Exit(-1)
	}

	log.Info(ctx, "MDS is ready.", map[string]interface{}{
		"boot_id": bootID,
	})

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	<-sigC

	srv.Shutdown(ctx)
}
