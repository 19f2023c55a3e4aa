package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/listen/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
		usage:        "HMAC key used to verify client tokens",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 3000,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	corsOrigins = configVar[string]{
		envKey:       "SERVER_CORS_ORIGINS",
		flagKey:      "cors-origins",
		defaultValue: "http://localhost:3000",
		usage:        "Comma separated list of allowed origins",
	}
	ntpServer = configVar[string]{
		envKey:       "NTP_SERVER",
		flagKey:      "ntp-server",
		defaultValue: "pool.ntp.org",
		usage:        "NTP server used for the startup clock sync, empty disables it",
	}
	ntpTimeout = configVar[time.Duration]{
		envKey:       "NTP_TIMEOUT",
		flagKey:      "ntp-timeout",
		defaultValue: 5 * time.Second,
		usage:        "Timeout of the startup clock sync",
	}
	roomTTL = configVar[time.Duration]{
		envKey:       "ROOM_TTL",
		flagKey:      "room-ttl",
		defaultValue: 24 * time.Hour,
		usage:        "Time a room is kept after its last change",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
)

func bindString(v configVar[string]) {
	pflag.String(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func bindInt(v configVar[int]) {
	pflag.Int(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func bindDuration(v configVar[time.Duration]) {
	pflag.Duration(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func splitList(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func loadAppConfig() *app.AppConfig {
	// a missing .env is fine, the environment and flags still apply
	_ = godotenv.Load()

	bindString(secret)
	bindInt(port)
	bindString(host)
	bindString(logLevel)
	bindString(corsOrigins)
	bindString(ntpServer)
	bindDuration(ntpTimeout)
	bindDuration(roomTTL)
	bindInt(redisPort)
	bindString(redisHost)
	bindString(redisPassword)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	return &app.AppConfig{
		Secret:        viper.GetString(secret.flagKey),
		Host:          viper.GetString(host.flagKey),
		Port:          viper.GetInt(port.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		CorsOrigins:   splitList(viper.GetString(corsOrigins.flagKey)),
		NTPServer:     viper.GetString(ntpServer.flagKey),
		NTPTimeout:    viper.GetDuration(ntpTimeout.flagKey),
		RoomTTL:       viper.GetDuration(roomTTL.flagKey),
		RedisPort:     viper.GetInt(redisPort.flagKey),
		RedisHost:     viper.GetString(redisHost.flagKey),
		RedisPassword: viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
