package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Db      DbConfig
	TG      TgConfig
	Admin   AdminsConfig
	Session SessionConfig
	Api     ApiConfig
	Logger  LogConfig
}

type DbConfig struct {
	Dsn             string
	MaxAttempts     int
	Delay           time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type TgConfig struct {
	Token                string
	DropOldMessagesAfter time.Duration
}

type AdminsConfig struct {
	AdminsID          []int64
	NotifyMinInterval time.Duration // троттлинг алертов админам в личку
}

// SessionConfig - тайминги жизненного цикла комнаты практики.
type SessionConfig struct {
	MinParticipants   int           // порог effective-участников (без бота и организатора)
	TerminationWait   time.Duration // ожидание участников до закрытия комнаты
	VoiceChatDeadline time.Duration // сколько ждём запуска войс-чата
	FinalWarning      time.Duration // финальное окно после предупреждения
	GracePeriod       time.Duration // пауза между завершением и зачисткой
	ReminderMarks     []int         // за сколько минут до конца напоминать
	RemovalBan        time.Duration // длительность бана при /remove
	InviteMemberLimit int
}

type ApiConfig struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
}

type LogConfig struct {
	Level  slog.Level
	AppEnv string
}

// Logging
func GetLogConfig() LogConfig {

	appEnv := os.Getenv("APP_ENV")

	if appEnv != "local" {
		appEnv = "prod"
	}

	return LogConfig{
		Level:  levelFromEnv(),
		AppEnv: appEnv,
	}
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func GetSessionConfig() SessionConfig {
	return SessionConfig{
		MinParticipants:   envInt("SESSION_MIN_PARTICIPANTS", 2),
		TerminationWait:   envDuration("SESSION_TERMINATION_WAIT", 2*time.Minute),
		VoiceChatDeadline: envDuration("SESSION_VOICE_CHAT_DEADLINE", 5*time.Minute),
		FinalWarning:      envDuration("SESSION_FINAL_WARNING", 1*time.Minute),
		GracePeriod:       envDuration("SESSION_GRACE_PERIOD", 1*time.Minute),
		ReminderMarks:     envIntList("SESSION_REMINDER_MARKS", []int{4, 3, 2}),
		RemovalBan:        envDuration("SESSION_REMOVAL_BAN", 24*time.Hour),
		InviteMemberLimit: envInt("SESSION_INVITE_MEMBER_LIMIT", 10),
	}
}

func GetApiConfig() ApiConfig {
	return ApiConfig{
		BindAddr:         envString("API_BIND_ADDR", ":8081"),
		ShutdownTimeout:  envDuration("API_SHUTDOWN_TIMEOUT", 15*time.Second),
		MetricsNamespace: envString("API_METRICS_NAMESPACE", "practice_bot"),
	}
}

func GetDbConfig() (DbConfig, error) {
	dsn, err := GetDsn()
	if err != nil {
		return DbConfig{}, err
	}

	return DbConfig{
		Dsn:             dsn,
		Delay:           envDuration("DB_DELAY_CONNECTION", 2*time.Second),
		MaxAttempts:     envInt("DB_MAX_ATTEMPTS", 5),
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONN", 10),
		MaxIdleConns:    envInt("DB_MAX_IDLE_CONN", 5),
		ConnMaxLifetime: envDuration("DB_MAX_LIFETIME_CONN", 30*time.Minute),
	}, nil
}

func GetDsn() (string, error) {
	env := os.Getenv("APP_ENV")

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
		if env == "docker" {
			host = "postgres"
		}
	}

	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")

	if user == "" || pass == "" || port == "" || name == "" {
		return "", fmt.Errorf("db env is not set: DB_USER, DB_PASSWORD, DB_PORT, DB_NAME are required")
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&TimeZone=UTC",
		user, pass, host, port, name,
	)
	return dsn, nil
}

func GetAdminConfig() AdminsConfig {
	notifyEvery := envDuration("ADMIN_NOTIFY_MIN_INTERVAL", 30*time.Second)

	raw := os.Getenv("ADMINS_ID")
	if strings.TrimSpace(raw) == "" {
		return AdminsConfig{AdminsID: nil, NotifyMinInterval: notifyEvery}
	}

	parts := strings.Split(raw, ",")
	adminsID := make([]int64, 0, len(parts))

	for _, strID := range parts {
		strID = strings.TrimSpace(strID)
		if strID == "" {
			continue
		}
		id, err := strconv.ParseInt(strID, 10, 64)
		if err != nil {
			continue
		}
		adminsID = append(adminsID, id)
	}

	return AdminsConfig{AdminsID: adminsID, NotifyMinInterval: notifyEvery}
}

func LoadConfig() (*Config, error) {
	if os.Getenv("APP_ENV") != "docker" {
		_ = godotenv.Load() // тихо; отсутствие .env - норм
	}

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN not set")
	}

	dbCfg, err := GetDbConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		TG: TgConfig{
			Token:                token,
			DropOldMessagesAfter: envDuration("BOT_DROP_OLD_TIMEOUT", 10*time.Second),
		},
		Db:      dbCfg,
		Admin:   GetAdminConfig(),
		Session: GetSessionConfig(),
		Api:     GetApiConfig(),
		Logger:  GetLogConfig(),
	}, nil
}

// helper for duration
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envString(key, def string) string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	return raw
}

// envIntList - "4,3,2" -> []int{4,3,2}. Невалидные элементы пропускаются.
func envIntList(key string, def []int) []int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}

	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}

	if len(out) == 0 {
		return def
	}
	return out
}
