package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	sc "github.com/sksmith/go-spring-config"
	"github.com/spf13/viper"
)

const (
	AppName  = "Go Commerce"
	Revision = "1"

	maxRemoteRetries = 5
)

var (
	// Build time arguments
	AppVersion  string
	Sha1Version string
	BuildTime   string

	// Runtime flags
	profile      *string
	configSource *string
	configUrl    *string
	configBranch *string
	configUser   *string
	configPass   *string
)

func init() {
	profile = flag.String("p", "", "profile for the application config, overrides the config file")
	configSource = flag.String("s", "local", "where to get configurations from (local, spring)")
	configUrl = flag.String("cfgUrl", "", "url for application config server")
	configBranch = flag.String("cfgBranch", "", "branch to request from the configuration server (used for spring cloud config)")
	configUser = flag.String("cfgUser", "", "username to use when connecting to the application server")
	configPass = flag.String("cfgPass", "", "password to use when connecting to the application server")
}

type loader interface {
	setDefault(v *viper.Viper)
	load(v *viper.Viper)
}

type StringConfig struct {
	Value       string `json:"value"`
	Default     string `json:"default"`
	Description string `json:"description"`
	Sensitive   bool   `json:"-"`
	key         string
}

func (c *StringConfig) setDefault(v *viper.Viper) { v.SetDefault(c.key, c.Default) }
func (c *StringConfig) load(v *viper.Viper)       { c.Value = v.GetString(c.key) }

type BoolConfig struct {
	Value       bool   `json:"value"`
	Default     bool   `json:"default"`
	Description string `json:"description"`
	key         string
}

func (c *BoolConfig) setDefault(v *viper.Viper) { v.SetDefault(c.key, c.Default) }
func (c *BoolConfig) load(v *viper.Viper)       { c.Value = v.GetBool(c.key) }

type IntConfig struct {
	Value       int    `json:"value"`
	Default     int    `json:"default"`
	Description string `json:"description"`
	key         string
}

func (c *IntConfig) setDefault(v *viper.Viper) { v.SetDefault(c.key, c.Default) }
func (c *IntConfig) load(v *viper.Viper)       { c.Value = v.GetInt(c.key) }

type Config struct {
	AppName     StringConfig  `json:"appName"`
	AppVersion  StringConfig  `json:"appVersion"`
	Sha1Version StringConfig  `json:"sha1Version"`
	BuildTime   StringConfig  `json:"buildTime"`
	Profile     StringConfig  `json:"profile"`
	Revision    StringConfig  `json:"revision"`
	Port        StringConfig  `json:"port"`
	Config      ConfigSource  `json:"config"`
	Log         LogConfig     `json:"log"`
	Db          DbConfig      `json:"db"`
	RabbitMQ    QueueConfig   `json:"rabbitmq"`
	Tracing     TracingConfig `json:"tracing"`
	Admin       AdminConfig   `json:"admin"`
}

type ConfigSource struct {
	Print  BoolConfig   `json:"print"`
	Routes BoolConfig   `json:"routes"`
	Source StringConfig `json:"source"`
	Spring SpringConfig `json:"spring"`
}

type SpringConfig struct {
	Url    StringConfig `json:"url"`
	Branch StringConfig `json:"branch"`
	User   StringConfig `json:"user"`
	Pass   StringConfig `json:"pass"`
}

type LogConfig struct {
	Level      StringConfig `json:"level"`
	Structured BoolConfig   `json:"structured"`
}

type DbConfig struct {
	Name     StringConfig `json:"name"`
	Host     StringConfig `json:"host"`
	Port     StringConfig `json:"port"`
	Migrate  BoolConfig   `json:"migrate"`
	Clean    BoolConfig   `json:"clean"`
	InMemory BoolConfig   `json:"inMemory"`
	User     StringConfig `json:"user"`
	Pass     StringConfig `json:"pass"`
	Pool     PoolConfig   `json:"pool"`
}

type PoolConfig struct {
	MinSize IntConfig `json:"minSize"`
	MaxSize IntConfig `json:"maxSize"`
}

type QueueConfig struct {
	Host      StringConfig       `json:"host"`
	Port      StringConfig       `json:"port"`
	User      StringConfig       `json:"user"`
	Pass      StringConfig       `json:"pass"`
	Mock      BoolConfig         `json:"mock"`
	Inventory ExchangeConfig     `json:"inventory"`
	Order     ExchangeConfig     `json:"order"`
	Product   ProductQueueConfig `json:"product"`
}

type ExchangeConfig struct {
	Exchange StringConfig `json:"exchange"`
}

type ProductQueueConfig struct {
	Queue StringConfig   `json:"queue"`
	Dlt   ExchangeConfig `json:"dlt"`
}

type TracingConfig struct {
	Enabled  BoolConfig   `json:"enabled"`
	Endpoint StringConfig `json:"endpoint"`
}

type AdminConfig struct {
	User  StringConfig `json:"user"`
	Email StringConfig `json:"email"`
	Pass  StringConfig `json:"pass"`
}

func str(key, def, desc string) StringConfig {
	return StringConfig{Default: def, Description: desc, key: key}
}

func secret(key, def, desc string) StringConfig {
	return StringConfig{Default: def, Description: desc, Sensitive: true, key: key}
}

func boolean(key string, def bool, desc string) BoolConfig {
	return BoolConfig{Default: def, Description: desc, key: key}
}

func integer(key string, def int, desc string) IntConfig {
	return IntConfig{Default: def, Description: desc, key: key}
}

func newConfig() *Config {
	return &Config{
		AppName:     str("appName", AppName, "Name of the application in a human readable format."),
		AppVersion:  str("appVersion", AppVersion, "Semantic version of the application. Example: v1.2.3"),
		Sha1Version: str("sha1Version", Sha1Version, "Git sha1 hash of the application version."),
		BuildTime:   str("buildTime", BuildTime, "When the application was compiled."),
		Profile:     str("profile", "local", "Running profile of the application. Examples: local, dev, prod"),
		Revision:    str("revision", Revision, "A hard coded revision handy for quickly determining if local changes are running."),
		Port:        str("port", "8080", "Port that the application will bind to on startup."),
		Config: ConfigSource{
			Print:  boolean("config.print", false, "Print configurations on startup."),
			Routes: boolean("config.routes", false, "Print the http routes on startup."),
			Source: str("config.source", "local", "Where the application should go for configurations. Examples: local, spring"),
			Spring: SpringConfig{
				Url:    str("config.spring.url", "", "The url of the Spring Cloud Config server."),
				Branch: str("config.spring.branch", "", "The git branch to pull configurations from."),
				User:   str("config.spring.user", "", "User to use when connecting to the Spring Cloud Config server."),
				Pass:   secret("config.spring.pass", "", "Password to use when connecting to the Spring Cloud Config server."),
			},
		},
		Log: LogConfig{
			Level:      str("log.level", "info", "The lowest level that the application should log at. Examples: debug, info, warn"),
			Structured: boolean("log.structured", false, "Output structured (json) logging instead of human friendly text."),
		},
		Db: DbConfig{
			Name:     str("db.name", "commerce-db", "The name of the database to connect to."),
			Host:     str("db.host", "localhost", "Host of the database."),
			Port:     str("db.port", "5432", "Port of the database."),
			Migrate:  boolean("db.migrate", true, "Run database migrations on startup."),
			Clean:    boolean("db.clean", false, "WARNING: deletes all data. Runs every down migration before migrating up."),
			InMemory: boolean("db.inMemory", false, "Use an in memory store instead of postgres."),
			User:     str("db.user", "postgres", "User the application will use to connect to the database."),
			Pass:     secret("db.pass", "postgres", "Password the application will use to connect to the database."),
			Pool: PoolConfig{
				MinSize: integer("db.pool.minSize", 1, "Minimum number of pooled database connections."),
				MaxSize: integer("db.pool.maxSize", 10, "Maximum number of pooled database connections."),
			},
		},
		RabbitMQ: QueueConfig{
			Host: str("rabbitmq.host", "localhost", "RabbitMQ's broker host."),
			Port: str("rabbitmq.port", "5672", "RabbitMQ's broker port."),
			User: str("rabbitmq.user", "guest", "User the application will use to connect to RabbitMQ."),
			Pass: secret("rabbitmq.pass", "guest", "Password the application will use to connect to RabbitMQ."),
			Mock: boolean("rabbitmq.mock", false, "Log messages instead of sending them to RabbitMQ."),
			Inventory: ExchangeConfig{
				Exchange: str("rabbitmq.inventory.exchange", "inventory.exchange", "Exchange for inventory level updates."),
			},
			Order: ExchangeConfig{
				Exchange: str("rabbitmq.order.exchange", "order.exchange", "Exchange for order status updates."),
			},
			Product: ProductQueueConfig{
				Queue: str("rabbitmq.product.queue", "product.queue", "Queue of new products coming from a product management system."),
				Dlt: ExchangeConfig{
					Exchange: str("rabbitmq.product.dlt.exchange", "product.dlt.exchange", "Exchange for product messages that could not be processed."),
				},
			},
		},
		Tracing: TracingConfig{
			Enabled:  boolean("tracing.enabled", false, "Export traces over OTLP."),
			Endpoint: str("tracing.endpoint", "localhost:4317", "OTLP gRPC collector endpoint."),
		},
		Admin: AdminConfig{
			User:  str("admin.user", "admin", "Administrator created on startup when running in memory."),
			Email: str("admin.email", "admin@example.com", "Email of the in memory administrator."),
			Pass:  secret("admin.pass", "", "Password of the in memory administrator. No administrator is created when empty."),
		},
	}
}

func (c *Config) loaders() []loader {
	return []loader{
		&c.AppName, &c.AppVersion, &c.Sha1Version, &c.BuildTime, &c.Profile, &c.Revision, &c.Port,
		&c.Config.Print, &c.Config.Routes, &c.Config.Source,
		&c.Config.Spring.Url, &c.Config.Spring.Branch, &c.Config.Spring.User, &c.Config.Spring.Pass,
		&c.Log.Level, &c.Log.Structured,
		&c.Db.Name, &c.Db.Host, &c.Db.Port, &c.Db.Migrate, &c.Db.Clean, &c.Db.InMemory, &c.Db.User, &c.Db.Pass,
		&c.Db.Pool.MinSize, &c.Db.Pool.MaxSize,
		&c.RabbitMQ.Host, &c.RabbitMQ.Port, &c.RabbitMQ.User, &c.RabbitMQ.Pass, &c.RabbitMQ.Mock,
		&c.RabbitMQ.Inventory.Exchange, &c.RabbitMQ.Order.Exchange,
		&c.RabbitMQ.Product.Queue, &c.RabbitMQ.Product.Dlt.Exchange,
		&c.Tracing.Enabled, &c.Tracing.Endpoint,
		&c.Admin.User, &c.Admin.Email, &c.Admin.Pass,
	}
}

func (c *Config) Print() {
	if c.Config.Print.Value {
		log.Info().Interface("config", c.Scrubbed()).Msg("the following configurations have successfully loaded")
	}
}

// Scrubbed returns a copy of the config with sensitive values blanked out.
func (c *Config) Scrubbed() *Config {
	cp := *c
	for _, l := range cp.loaders() {
		s, ok := l.(*StringConfig)
		if !ok || !s.Sensitive {
			continue
		}
		if s.Value != "" {
			s.Value = "********"
		}
		if s.Default != "" {
			s.Default = "********"
		}
	}
	return &cp
}

// LoadDefaults returns a config built from defaults and environment variables only.
func LoadDefaults() *Config {
	cfg := newConfig()
	v := newViper(cfg)
	load(cfg, v)
	return cfg
}

// Load reads the named yaml config file from the working directory, or from a Spring
// Cloud Config server when the -s flag is spring. Environment variables override both.
func Load(name string) *Config {
	cfg := newConfig()
	v := newViper(cfg)

	if *profile != "" {
		v.Set("profile", *profile)
	}
	v.Set("config.source", *configSource)
	if *configUrl != "" {
		v.Set("config.spring.url", *configUrl)
		v.Set("config.spring.branch", *configBranch)
		v.Set("config.spring.user", *configUser)
		v.Set("config.spring.pass", *configPass)
	}

	var err error
	switch *configSource {
	case "local":
		err = loadLocalConfigs(v, name)
	case "spring":
		err = loadRemoteConfigs(v)
	default:
		log.Warn().
			Str("configSource", *configSource).
			Msg("unrecognized configuration source, using local")

		err = loadLocalConfigs(v, name)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configurations")
	}

	load(cfg, v)
	return cfg
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	for _, l := range cfg.loaders() {
		l.setDefault(v)
	}
	v.SetEnvPrefix("commerce")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func load(cfg *Config, v *viper.Viper) {
	for _, l := range cfg.loaders() {
		l.load(v)
	}
}

func loadLocalConfigs(v *viper.Viper, name string) error {
	log.Info().Str("name", name).Msg("loading local configurations...")

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Str("name", name).Msg("config file not found, using defaults")
			return nil
		}
		return errors.WithStack(err)
	}
	return nil
}

func loadRemoteConfigs(v *viper.Viper) error {
	url := v.GetString("config.spring.url")
	log.Info().Str("url", url).Msg("loading remote configurations...")

	var remote *sc.Config
	var err error
	for try := 1; try <= maxRemoteRetries; try++ {
		remote, err = sc.LoadWithCreds(url, AppName, v.GetString("config.spring.branch"),
			v.GetString("config.spring.user"), v.GetString("config.spring.pass"), v.GetString("profile"))
		if err == nil {
			break
		}
		log.Error().Err(err).Int("try", try).Msg("failed to load configurations... retrying")
		time.Sleep(time.Duration(try) * time.Second)
	}
	if err != nil {
		return errors.WithMessage(err, fmt.Sprintf("unable to reach config server after %d tries", maxRemoteRetries))
	}

	for k, val := range remote.Values {
		v.Set(k, val)
	}
	return nil
}
