package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env       string
	AppSecret string
	JWTExpiry time.Duration
	Port      string
	LogPath   string
	Debug     bool

	CORSOrigins []string

	Store StoreConfig
	TMDB  TMDBConfig
}

// StoreConfig 文档存储配置
type StoreConfig struct {
	Driver      string // postgres | sqlite | mongo
	DatabaseURL string
	SQLitePath  string
	MongoURI    string
	MongoDB     string
}

// TMDBConfig TMDB 接口配置
type TMDBConfig struct {
	APIKey       string
	APIBase      string
	Language     string
	ImageBase    string // 海报 w500
	BackdropBase string // 详情页背景 original
	HeroBase     string // 首页大图 w1280
	RateLimit    float64
	Timeout      time.Duration
}

// Load 加载配置
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "5005")
	v.SetDefault("APP_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 72)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "movie_cards")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "movie_cards.db")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "movie_cards")

	v.SetDefault("TMDB_API_BASE", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_LANGUAGE", "es-AR")
	v.SetDefault("TMDB_IMAGE_BASE", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("TMDB_BACKDROP_BASE", "https://image.tmdb.org/t/p/original")
	v.SetDefault("TMDB_HERO_BASE", "https://image.tmdb.org/t/p/w1280")
	v.SetDefault("TMDB_RATE_LIMIT", 20)
	v.SetDefault("TMDB_TIMEOUT_SECONDS", 15)

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		v.GetString("DB_USER"), v.GetString("DB_PASSWORD"), v.GetString("DB_HOST"),
		v.GetString("DB_PORT"), v.GetString("DB_NAME"), v.GetString("DB_SSLMODE"))

	env := v.GetString("APP_ENV")
	appSecret := v.GetString("APP_SECRET")
	if env == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:       env,
		AppSecret: appSecret,
		JWTExpiry: time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		Port:      v.GetString("PORT"),
		LogPath:   v.GetString("LOG_PATH"),
		Debug:     env != "production",

		CORSOrigins: strings.Split(v.GetString("CORS_ORIGINS"), ","),
		Store: StoreConfig{
			Driver:      v.GetString("STORE_DRIVER"),
			DatabaseURL: dbURL,
			SQLitePath:  v.GetString("SQLITE_PATH"),
			MongoURI:    v.GetString("MONGO_URI"),
			MongoDB:     v.GetString("MONGO_DB"),
		},
		TMDB: TMDBConfig{
			APIKey:       v.GetString("TMDB_API_KEY"),
			APIBase:      v.GetString("TMDB_API_BASE"),
			Language:     v.GetString("TMDB_LANGUAGE"),
			ImageBase:    v.GetString("TMDB_IMAGE_BASE"),
			BackdropBase: v.GetString("TMDB_BACKDROP_BASE"),
			HeroBase:     v.GetString("TMDB_HERO_BASE"),
			RateLimit:    v.GetFloat64("TMDB_RATE_LIMIT"),
			Timeout:      time.Duration(v.GetInt("TMDB_TIMEOUT_SECONDS")) * time.Second,
		},
	}
}
