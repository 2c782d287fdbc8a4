// Command kabegamed is the Kabegame daemon: it opens the relational store,
// builds the Provider Tree runtime, starts the IPC server, mounts the
// virtual drive, and serves until asked to stop. Wiring order and
// signal handling are grounded on konftool's mainCmd/waitForTermSignal,
// generalized from a single web server to the daemon's handful of
// long-running services.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kabegame/kabegame-sub003/internal/apppaths"
	"github.com/kabegame/kabegame-sub003/internal/dedupe"
	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/ipc"
	"github.com/kabegame/kabegame-sub003/internal/provider"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/subscription"
	"github.com/kabegame/kabegame-sub003/internal/vdrive"
)

const (
	eventQueueSize     = 256
	providerCacheSize  = 512
	warmUpShallowDepth = 2
)

var warmUpHotDirNames = []string{provider.DirAlbums, provider.DirByPlugin}

func waitForTermSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGINT)
	<-quit
}

// daemon bundles every long-running service this command starts, so a
// single Close can tear them all down in reverse dependency order.
type daemon struct {
	store      *storage.Storage
	runtime    *provider.Runtime
	vd         *vdrive.Handler
	ipcLn      interface{ Close() error }
	stopWarmUp context.CancelFunc
}

func (d *daemon) Close() {
	if d.stopWarmUp != nil {
		d.stopWarmUp()
	}
	if d.vd != nil {
		if err := d.vd.Unmount(); err != nil {
			logrus.WithError(err).Warn("unmount virtual drive")
		}
	}
	if d.ipcLn != nil {
		_ = d.ipcLn.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			logrus.WithError(err).Warn("close database")
		}
	}
}

func rootCmd() *cobra.Command {
	var dataDir string
	var mountPoint string
	var noMount bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "kabegamed",
		Short: "Kabegame background daemon",
		Long: `kabegamed owns the image database, projects it as a virtual
drive, and answers IPC requests from the desktop client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.StandardLogger()
			if lvl, err := logrus.ParseLevel(logLevel); err == nil {
				log.SetLevel(lvl)
			} else {
				log.Warnf("unrecognized log level %q, keeping default", logLevel)
			}

			paths, err := apppaths.Resolve(dataDir)
			if err != nil {
				return fmt.Errorf("resolve app paths: %w", err)
			}
			if err := apppaths.EnsureDirs(paths); err != nil {
				return fmt.Errorf("create app directories: %w", err)
			}
			if mountPoint != "" {
				paths.VirtualDriveMountPoint = mountPoint
			}

			d, err := startDaemon(paths, noMount, log)
			if err != nil {
				if errors.Is(err, ipc.ErrAlreadyRunning) {
					return fmt.Errorf("kabegamed is already running against %s", paths.DataDir)
				}
				return err
			}
			defer d.Close()

			log.WithField("data_dir", paths.DataDir).Info("kabegamed started")
			waitForTermSignal()
			log.Info("shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "override the data directory instead of the platform default")
	cmd.Flags().StringVar(&mountPoint, "mount", "", "override the virtual drive mount point")
	cmd.Flags().BoolVar(&noMount, "no-mount", false, "start the daemon without mounting the virtual drive")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")

	cmd.AddCommand(dedupeCmd())
	return cmd
}

// startDaemon wires every service, starts the IPC server in the
// background, and (unless disabled) mounts the virtual drive, returning
// a handle the caller tears down on shutdown. The wiring order mirrors
// DESIGN.md: Storage, then the Provider Runtime, then the Event
// Broadcaster and Subscription Manager, then the Dedupe Service, then
// IPC, then the virtual drive, each only needing the pieces built before
// it.
func startDaemon(paths apppaths.Paths, noMount bool, log *logrus.Logger) (*daemon, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	store, err := storage.Open(paths.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	d := &daemon{store: store}

	notes := provider.NewNoteFiles(paths.VirtualDriveDir)
	factory := provider.NewFactory(store, notes)
	runtime, err := provider.NewRuntime(factory, providerCacheSize)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("build provider runtime: %w", err)
	}
	d.runtime = runtime

	warmUpCtx, stopWarmUp := context.WithCancel(context.Background())
	d.stopWarmUp = stopWarmUp
	go func() {
		if err := runtime.WarmUp(warmUpCtx, true, warmUpShallowDepth, warmUpHotDirNames); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Debug("warm-up pass ended early")
		}
	}()

	broadcaster := events.New(eventQueueSize)
	subs := subscription.New(broadcaster)
	dedupeSvc := dedupe.New(store, broadcaster)

	dispatcher := ipc.NewDispatcher(store, runtime, subs, dedupeSvc, broadcaster)
	server := ipc.NewServer(dispatcher, subs, log)

	ln, err := ipc.Listen(ipcPlatformAddr(paths))
	if err != nil {
		d.Close()
		return nil, err
	}
	d.ipcLn = ln
	go func() {
		if err := server.Serve(ln); err != nil {
			log.WithError(err).Warn("ipc server stopped")
		}
	}()

	if !noMount {
		vd, err := vdrive.New(runtime, broadcaster, vdrive.DefaultOptions())
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("build virtual drive handler: %w", err)
		}
		if err := vd.Mount(paths.VirtualDriveMountPoint); err != nil {
			log.WithError(err).Warn("virtual drive not mounted")
		} else {
			d.vd = vd
			log.WithField("mount", paths.VirtualDriveMountPoint).Info("virtual drive mounted")
		}
	}

	return d, nil
}

func dedupeCmd() *cobra.Command {
	var dataDir string
	var deleteFiles bool
	var batchSize int

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Run a one-shot duplicate image scan against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := apppaths.Resolve(dataDir)
			if err != nil {
				return fmt.Errorf("resolve app paths: %w", err)
			}
			if err := apppaths.EnsureDirs(paths); err != nil {
				return fmt.Errorf("create app directories: %w", err)
			}

			store, err := storage.Open(paths.DatabasePath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			broadcaster := events.New(eventQueueSize)
			sub := broadcaster.Subscribe(events.DedupeProgress, events.DedupeFinished)
			defer sub.Unsubscribe()

			svc := dedupe.New(store, broadcaster)
			if batchSize <= 0 {
				batchSize = dedupe.DefaultBatchSize
			}
			if err := svc.Start(deleteFiles, batchSize); err != nil {
				return err
			}

			for ev := range sub.Events() {
				fmt.Printf("%s %v\n", ev.Kind, ev.Payload)
				if ev.Kind == events.DedupeFinished {
					break
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "override the data directory instead of the platform default")
	cmd.Flags().BoolVar(&deleteFiles, "delete", false, "delete duplicate image files from disk instead of only removing records")
	cmd.Flags().IntVar(&batchSize, "batch-size", dedupe.DefaultBatchSize, "number of images to examine per batch")
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kabegamed:", err)
		os.Exit(1)
	}
}
