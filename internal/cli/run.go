package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/comalice/rafcore/internal/config"
	"github.com/comalice/rafcore/internal/core"
	"github.com/comalice/rafcore/internal/production"
)

func runRoot(cmd *cobra.Command, args []string) error {
	dir := configPath
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving default config directory: %w", err)
		}
		dir = filepath.Join(home, ".rafcore")
	}

	if openPath != "" {
		return inspectSnapshot(openPath)
	}

	if remoteMode {
		fmt.Println("enginectl: remote mode requested, but no remote control transport is wired up; nothing to do")
		return nil
	}

	cfg, err := config.Load(filepath.Join(dir, "runtime.yaml"))
	if err != nil {
		return fmt.Errorf("loading runtime config: %w", err)
	}

	m := buildDemoMachine()

	persister, err := production.NewJSONPersister(dir)
	if err != nil {
		return fmt.Errorf("preparing snapshot directory: %w", err)
	}
	bufferedLog := core.NewBufferedObserver(production.NewLogObserver(nil), cfg.ObserverQueueCapacity)
	defer bufferedLog.Close()
	m.Bus().Subscribe("", bufferedLog)
	m.Bus().Subscribe(core.EventOutcome, production.NewSnapshotObserver("demo", m.Root, persister.Save))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(cmd.Context()) }()
	m.Bus().Subscribe("", production.NewOTelObserver(tp.Tracer("enginectl")))

	reg := prometheus.NewRegistry()
	m.Bus().Subscribe("", production.NewMetricsObserver(reg))

	history := core.NewHistoryRecorder(cfg.HistoryBufferSize)
	m.Bus().Subscribe(core.EventOutcome, history)

	engine := core.NewEngine(m, history)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM)
	defer signal.Stop(sig)

	if err := engine.Start(startStatePath); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- engine.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("machine finished with error: %w", err)
		}
		if outcome, ok := engine.FinalOutcome(); ok {
			fmt.Printf("enginectl: finished with outcome %d\n", outcome)
		} else {
			fmt.Println("enginectl: finished")
		}
		return nil
	case s := <-sig:
		fmt.Printf("\nenginectl: received %s, stopping\n", s)
		stopped := make(chan error, 1)
		go func() { stopped <- engine.Stop() }()
		select {
		case err := <-stopped:
			if err != nil {
				return fmt.Errorf("stopping engine: %w", err)
			}
		case <-time.After(time.Duration(shutdownGrace) * time.Second):
			fmt.Println("enginectl: shutdown grace period elapsed, exiting without a clean join")
		}
		return nil
	}
}

func inspectSnapshot(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	pretty, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(pretty))
	return err
}
