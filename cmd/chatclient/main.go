package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"garage-chat/internal/appstate"
	"garage-chat/internal/config"
	"garage-chat/internal/conversation"
	"garage-chat/internal/database"
	"garage-chat/internal/docstore"
	"garage-chat/internal/models"
	"garage-chat/internal/notify"
	"garage-chat/internal/session"
	"garage-chat/internal/storage"
	"garage-chat/internal/watcher"
	"garage-chat/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const help = `Lệnh:
  /list          xem danh sách tin nhắn
  /delete <n>    xóa tin nhắn thứ n
  /logout        đăng xuất
  /quit          thoát
Nội dung khác được gửi như một tin nhắn.`

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to config file")
	email := pflag.StringP("email", "e", "", "email đăng nhập (bỏ trống = khôi phục phiên trước)")
	relayURL := pflag.String("relay", "", "relay websocket URL (ghi đè client.relay_url)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *relayURL != "" {
		cfg.Client.RelayURL = *relayURL
	}

	// log ra stderr để không lẫn với nội dung chat
	log, err := logger.NewLoggerTo(cfg.Logging.Level, cfg.Logging.Format, "chatclient", os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Storage cục bộ + docstore
	// =========================================================================
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open local storage", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate local storage", zap.Error(err))
	}
	local := storage.NewGormStore(db)

	docs, closeDocs, err := docstore.Open(ctx, cfg.Firebase, log)
	if err != nil {
		log.Fatal("failed to open document store", zap.Error(err))
	}
	defer closeDocs()

	if mem, ok := docs.(*docstore.Memory); ok && *email != "" {
		seedProfile(ctx, mem, *email)
	}

	// =========================================================================
	// App state, session, chat
	// =========================================================================
	app := appstate.NewStore(appstate.State{})
	sessions := session.NewManager(docs, local, app, log)
	dispatcher := notify.NewWriterDispatcher(os.Stdout)

	chat := conversation.NewSync(storage.NewConversationLog(local), conversation.WebsocketDialer(log), dispatcher, log)
	unfollow := chat.Follow(ctx, app)
	defer unfollow()

	stopCatalog, err := session.WatchCatalog(ctx, docs, app, log)
	if err != nil {
		log.Warn("catalog unavailable", zap.Error(err))
	} else {
		defer stopCatalog()
	}

	if *email != "" {
		if _, err := sessions.Login(ctx, *email); err != nil {
			log.Fatal("login failed", zap.String("email", *email), zap.Error(err))
		}
	} else if ok, _ := sessions.Restore(ctx); !ok {
		fmt.Fprintln(os.Stderr, "Chưa đăng nhập: chạy lại với --email")
		os.Exit(1)
	}
	user := app.CurrentUser()

	// thông báo lịch hẹn của chính user này
	notifier := watcher.NewNotifier(docs, dispatcher, watcher.Order(cfg.Notifier.Order), log)
	stopSchedules, err := notifier.WatchSchedules(ctx, cfg.Notifier, user.UID)
	if err != nil {
		log.Warn("schedule notifications unavailable", zap.Error(err))
	} else {
		defer stopSchedules()
	}

	// relay không truy cập được thì chat chỉ hoạt động cục bộ
	if err := chat.Connect(ctx, cfg.Client.RelayURL); err == nil {
		defer chat.Close()
	}

	fmt.Printf("Xin chào %s (%d tin nhắn đã lưu)\n%s\n", displayName(user), len(chat.Messages()), help)
	repl(ctx, chat, sessions)
}

func repl(ctx context.Context, chat *conversation.Sync, sessions *session.Manager) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	next := func() (string, bool) {
		select {
		case <-ctx.Done():
			return "", false
		case line, ok := <-lines:
			return line, ok
		}
	}

	for {
		line, ok := next()
		if !ok {
			return
		}

		switch {
		case line == "/quit":
			return

		case line == "/list":
			for i, m := range chat.Messages() {
				fmt.Printf("%3d %s %s: %s\n", i, m.SentAt().Local().Format("15:04"), sender(m), m.Text)
			}

		case strings.HasPrefix(line, "/delete"):
			idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/delete")))
			if err != nil {
				fmt.Println("Cú pháp: /delete <n>")
				continue
			}
			err = chat.DeleteAt(ctx, idx, func(m models.ChatMessage) bool {
				fmt.Printf("Xóa tin nhắn %q? (y/n) ", m.Text)
				answer, ok := next()
				return ok && strings.EqualFold(strings.TrimSpace(answer), "y")
			})
			if err != nil {
				fmt.Println("Không xóa:", err)
			}

		case line == "/logout":
			sessions.Logout(ctx)
			fmt.Println("Đã đăng xuất")
			return

		default:
			if err := chat.Send(ctx, line); err != nil {
				fmt.Println("Không gửi được:", err)
			}
		}
	}
}

// seedProfile tạo hồ sơ cho email khi chạy với docstore trong bộ nhớ
func seedProfile(ctx context.Context, mem *docstore.Memory, email string) {
	uid := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
	_ = mem.Put(ctx, models.UsersCollection, uid, map[string]interface{}{
		"uid":      uid,
		"email":    email,
		"username": strings.Split(email, "@")[0],
		"isActive": true,
	})
}

func displayName(u *models.User) string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.UserName != "":
		return u.UserName
	default:
		return u.Email
	}
}

func sender(m models.ChatMessage) string {
	if m.UserName != "" {
		return m.UserName
	}
	return string(m.Role())
}
