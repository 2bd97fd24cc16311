package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"garage-chat/internal/config"
	"garage-chat/internal/docstore"
	"garage-chat/internal/models"
	"garage-chat/internal/notify"
	"garage-chat/internal/session"
	"garage-chat/internal/watcher"
	"garage-chat/pkg/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to config file")
	uid := pflag.String("uid", "", "chỉ theo dõi lịch của user này (bỏ trống = tất cả)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format, "notifier")
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting notifier",
		zap.String("order", cfg.Notifier.Order),
		zap.String("dispatcher", cfg.Notifier.Dispatcher),
		zap.String("uid", *uid),
		zap.Bool("status_push", cfg.Notifier.StatusPush),
	)

	// =========================================================================
	// Docstore + dispatcher
	// =========================================================================
	// Memory store chỉ sống trong process này, notifier cần store dùng chung
	docs, closeDocs, err := docstore.OpenShared(ctx, cfg.Firebase, log)
	if err != nil {
		log.Fatal("failed to open document store", zap.Error(err))
	}
	defer closeDocs()

	var (
		dispatcher notify.Dispatcher = notify.NewLogDispatcher(log)
		pusher     *notify.Pusher
	)

	if cfg.Notifier.Dispatcher == "fcm" {
		app, err := notify.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Fatal("failed to init firebase", zap.Error(err))
		}
		messaging, err := app.Messaging(ctx)
		if err != nil {
			log.Fatal("failed to init messaging", zap.Error(err))
		}
		pusher = notify.NewPusher(messaging, log)
		dispatcher = notify.Multi{dispatcher, notify.NewFCMDispatcher(pusher, session.UserTokenLookup(docs))}
	}

	// =========================================================================
	// Workers
	// =========================================================================
	g, gctx := errgroup.WithContext(ctx)

	notifier := watcher.NewNotifier(docs, dispatcher, watcher.Order(cfg.Notifier.Order), log)
	g.Go(func() error {
		unsubscribe, err := notifier.WatchSchedules(gctx, cfg.Notifier, *uid)
		if err != nil {
			return fmt.Errorf("watch schedules: %w", err)
		}
		<-gctx.Done()
		unsubscribe()
		return nil
	})

	if cfg.Notifier.StatusPush {
		if pusher == nil {
			log.Warn("status_push requires notifier.dispatcher = fcm, skipped")
		} else {
			statusPush := watcher.NewStatusPush(docs, pusher, cfg.Notifier.RepairCollection, log)
			g.Go(func() error {
				unsubscribe, err := statusPush.Start(gctx)
				if err != nil {
					return fmt.Errorf("status push: %w", err)
				}
				<-gctx.Done()
				unsubscribe()
				return nil
			})
		}
	}

	g.Go(func() error {
		return summarize(gctx, docs, cfg.Notifier, *uid, log)
	})

	if err := g.Wait(); err != nil {
		log.Error("notifier stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("notifier exited")
}

// summarize log số lịch đang chờ lúc khởi động
func summarize(ctx context.Context, docs docstore.Store, cfg config.NotifierConfig, uid string, log *zap.Logger) error {
	repairs, err := docs.Find(ctx, watcher.UserQuery(cfg.RepairCollection, uid))
	if err != nil {
		return fmt.Errorf("load repair schedules: %w", err)
	}
	pendingRepairs := 0
	for _, d := range repairs {
		r, err := models.ParseRepairSchedule(d.ID, d.Data)
		if err != nil {
			log.Warn("Skip malformed repair schedule", zap.String("doc_id", d.ID), zap.Error(err))
			continue
		}
		if !r.IsCompleted() {
			pendingRepairs++
		}
	}

	drives, err := docs.Find(ctx, watcher.UserQuery(cfg.TestDriveCollection, uid))
	if err != nil {
		return fmt.Errorf("load test drive schedules: %w", err)
	}
	pendingDrives := 0
	for _, d := range drives {
		td, err := models.ParseTestDriveSchedule(d.ID, d.Data)
		if err != nil {
			log.Warn("Skip malformed test drive schedule", zap.String("doc_id", d.ID), zap.Error(err))
			continue
		}
		if !td.IsConfirmed() {
			pendingDrives++
		}
	}

	log.Info("Schedules loaded",
		zap.Int("repairs", len(repairs)),
		zap.Int("repairs_pending", pendingRepairs),
		zap.Int("test_drives", len(drives)),
		zap.Int("test_drives_pending", pendingDrives),
	)
	return nil
}
