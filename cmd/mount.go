// Copyright 2024 Google LLC
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

package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ariagecheney/ish/cfg"
	"github.com/ariagecheney/ish/internal/fakefs"
	"github.com/ariagecheney/ish/internal/logger"
	"github.com/ariagecheney/ish/internal/metrics"
)

// runMount drives one mount's lifetime: initialize the ambient stack,
// open the fakefs core, optionally serve metrics, then block until a
// termination signal arrives and unmount cleanly.
func runMount(ctx context.Context, c cfg.Config) error {
	if err := logger.Init(logger.Config{
		Format:      string(c.Logging.Format),
		Severity:    string(c.Logging.Severity),
		FilePath:    string(c.Logging.FilePath),
		MaxSizeMB:   c.Logging.MaxSizeMB,
		BackupCount: c.Logging.BackupCount,
		Compress:    c.Logging.Compress,
	}); err != nil {
		return err
	}

	fs, err := fakefs.Open(ctx, fakefs.Options{
		DataDir:    string(c.DataDir),
		DefaultUid: uint32(c.FileSystem.Uid),
		DefaultGid: uint32(c.FileSystem.Gid),
	})
	if err != nil {
		return err
	}
	defer fs.Close()

	logger.Infof("fakefs: mounted %s", c.DataDir)

	var srv *http.Server
	if c.Metrics.Enable {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: c.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("fakefs: metrics server: %v", err)
			}
		}()
		logger.Infof("fakefs: metrics listening on %s", c.Metrics.Addr)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if srv != nil {
		srv.Close()
	}
	logger.Infof("fakefs: unmounting %s", c.DataDir)
	return nil
}
