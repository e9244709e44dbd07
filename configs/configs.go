package configs

import "github.com/spf13/viper"

type Configs struct {
	WebServerPort string `mapstructure:"WEB_SERVER_PORT"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"` // bcrypt hash of the admin password
	AccessTokenExp    int    `mapstructure:"ACCESS_TOKEN_EXP"`    // Default: 900 (15 min)
	RefreshTokenExp   int    `mapstructure:"REFRESH_TOKEN_EXP"`   // Default: 7200 (2h admin session)

	CatalogBaseURL       string `mapstructure:"CATALOG_BASE_URL"`
	CatalogTLSSkipVerify bool   `mapstructure:"CATALOG_TLS_SKIP_VERIFY"` // upstream has a broken cert chain; keep false unless it bites
	CatalogUserES        string `mapstructure:"CATALOG_USER_ES"`
	CatalogPassES        string `mapstructure:"CATALOG_PASS_ES"`
	CatalogUserEN        string `mapstructure:"CATALOG_USER_EN"`
	CatalogPassEN        string `mapstructure:"CATALOG_PASS_EN"`
	CatalogUserFR        string `mapstructure:"CATALOG_USER_FR"`
	CatalogPassFR        string `mapstructure:"CATALOG_PASS_FR"`
	CatalogUserIT        string `mapstructure:"CATALOG_USER_IT"`
	CatalogPassIT        string `mapstructure:"CATALOG_PASS_IT"`
	CatalogUserRef       string `mapstructure:"CATALOG_USER_REF"` // reseller tier account for price comparison
	CatalogPassRef       string `mapstructure:"CATALOG_PASS_REF"`

	GruposFile string `mapstructure:"GRUPOS_FILE"` // fallback spreadsheet when postgres is unavailable
	OrdenFile  string `mapstructure:"ORDEN_FILE"`
	BackupDir  string `mapstructure:"BACKUP_DIR"`

	EmailProvider    string   `mapstructure:"EMAIL_PROVIDER"` // "smtp" or "mailjet"
	EmailFrom        string   `mapstructure:"EMAIL_FROM"`
	SMTPHost         string   `mapstructure:"SMTP_HOST"`
	SMTPPort         int      `mapstructure:"SMTP_PORT"`
	SMTPUser         string   `mapstructure:"SMTP_USER"`
	SMTPPass         string   `mapstructure:"SMTP_PASS"`
	MailjetAPIKey    string   `mapstructure:"MAILJET_API_KEY"`
	MailjetAPISecret string   `mapstructure:"MAILJET_API_SECRET"`
	AlertRecipients  []string `mapstructure:"ALERT_RECIPIENTS"` // recipients for backup/job failure alerts

	CronExpression string `mapstructure:"CRON_EXPRESSION"` // table backup schedule (6 fields with seconds)
	LogPath        string `mapstructure:"LOG_PATH"`
}

func LoadConfig(path string) (*Configs, error) {
	var cfg *Configs
	viper.SetConfigName("app_config")
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("WEB_SERVER_PORT", ":8080")

	viper.SetDefault("ACCESS_TOKEN_EXP", 900)
	viper.SetDefault("REFRESH_TOKEN_EXP", 7200)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("CATALOG_TLS_SKIP_VERIFY", false)

	viper.SetDefault("GRUPOS_FILE", "grupos.xlsx")
	viper.SetDefault("ORDEN_FILE", "orden.xlsx")
	viper.SetDefault("BACKUP_DIR", "backups")

	viper.SetDefault("EMAIL_PROVIDER", "smtp")

	// Backup runs at 3:00 AM every day
	viper.SetDefault("CRON_EXPRESSION", "0 0 3 * * *")

	viper.SetDefault("LOG_PATH", "")
	viper.SetDefault("ALERT_RECIPIENTS", []string{})

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
