package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ===========================================================================
// Config
// Cấu hình chung cho cả 3 process: relay, chatclient, notifier.
// Đọc từ file yaml, sau đó cho phép ENV ghi đè (APP_PORT, LOG_LEVEL, ...)
// ===========================================================================

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Relay      RelayConfig      `mapstructure:"relay"`
	Centrifugo CentrifugoConfig `mapstructure:"centrifugo"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Firebase   FirebaseConfig   `mapstructure:"firebase"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
	Client     ClientConfig     `mapstructure:"client"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env" validate:"omitempty,oneof=development production test"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// RelayConfig cấu hình websocket relay
type RelayConfig struct {
	// Path đường dẫn upgrade websocket
	Path string `mapstructure:"path" validate:"required,startswith=/"`

	// AllowedOrigins danh sách origin được phép ("*" = tất cả)
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`

	// SendBuffer kích thước hàng đợi gửi của mỗi connection
	SendBuffer int `mapstructure:"send_buffer" validate:"min=1"`

	// MaxMessageSize giới hạn kích thước frame đọc từ client (bytes)
	MaxMessageSize int64 `mapstructure:"max_message_size" validate:"min=1"`

	WriteWait time.Duration `mapstructure:"write_wait"`
	PongWait  time.Duration `mapstructure:"pong_wait"`
}

// PingPeriod chu kỳ ping, phải nhỏ hơn PongWait
func (c *RelayConfig) PingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

type CentrifugoConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Channel string `mapstructure:"channel"`
}

// Enabled mirror chỉ bật khi có đủ URL và API key
func (c *CentrifugoConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != ""
}

// DatabaseConfig cấu hình storage cục bộ (gorm)
type DatabaseConfig struct {
	// Driver "sqlite" (mặc định, lưu trên thiết bị) hoặc "postgres"
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`

	// Path file sqlite
	Path string `mapstructure:"path"`

	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=Asia/Ho_Chi_Minh",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// FirebaseConfig thông tin project Firebase (Firestore + FCM)
type FirebaseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`

	// Emulator true = dùng docstore in-memory thay vì Firestore thật (dev/test)
	Emulator bool `mapstructure:"emulator"`
}

// NotifierConfig cấu hình watcher lịch sửa chữa / lái thử
type NotifierConfig struct {
	// Order "fire_then_mark" hoặc "mark_then_fire"
	Order string `mapstructure:"order" validate:"oneof=fire_then_mark mark_then_fire"`

	// Dispatcher "log" hoặc "fcm"
	Dispatcher string `mapstructure:"dispatcher" validate:"oneof=log fcm"`

	RepairCollection    string `mapstructure:"repair_collection" validate:"required"`
	TestDriveCollection string `mapstructure:"test_drive_collection" validate:"required"`

	// StatusPush bật watcher gửi FCM khi trạng thái lịch sửa chữa thay đổi
	StatusPush bool `mapstructure:"status_push"`
}

// ClientConfig cấu hình chatclient
type ClientConfig struct {
	RelayURL string `mapstructure:"relay_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsProduction checks if app is in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// APP_PORT -> app.port, NOTIFIER_ORDER -> notifier.order, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Database.Password = expandEnv(cfg.Database.Password)
	cfg.Centrifugo.APIKey = expandEnv(cfg.Centrifugo.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default trả về cấu hình mặc định không cần file (tests, chạy nhanh local)
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "garage-chat")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 4000)

	v.SetDefault("relay.path", "/ws")
	v.SetDefault("relay.allowed_origins", []string{"*"})
	v.SetDefault("relay.send_buffer", 256)
	v.SetDefault("relay.max_message_size", 64*1024)
	v.SetDefault("relay.write_wait", 10*time.Second)
	v.SetDefault("relay.pong_wait", 60*time.Second)

	v.SetDefault("centrifugo.channel", "chat:garage")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "garage-chat.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("notifier.order", "fire_then_mark")
	v.SetDefault("notifier.dispatcher", "log")
	v.SetDefault("notifier.repair_collection", "repairSchedules")
	v.SetDefault("notifier.test_drive_collection", "testDriveSchedules")

	v.SetDefault("client.relay_url", "ws://localhost:4000/ws")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// expandEnv xử lý pattern ${VAR:default} trong file config
func expandEnv(val string) string {
	if !strings.HasPrefix(val, "${") || !strings.HasSuffix(val, "}") {
		return val
	}
	inner := val[2 : len(val)-1]
	parts := strings.SplitN(inner, ":", 2)
	if env := os.Getenv(parts[0]); env != "" {
		return env
	}
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Relay.PongWait > 0 && c.Relay.WriteWait >= c.Relay.PongWait {
		return fmt.Errorf("relay.write_wait (%s) must be shorter than relay.pong_wait (%s)",
			c.Relay.WriteWait, c.Relay.PongWait)
	}

	if c.Database.Driver == "postgres" && c.Database.Host == "" {
		return fmt.Errorf("database.host is required for postgres driver")
	}

	if !c.Firebase.Emulator && c.Firebase.ProjectID == "" {
		return fmt.Errorf("firebase.project_id is required unless firebase.emulator is set")
	}

	return nil
}
