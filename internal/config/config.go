package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables; components
// receive a constructed Config (or a sub-struct) explicitly.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Support SupportConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// SupportConfig carries the support-desk behavior knobs.
//
// Business hours are a single daily window in a fixed civil timezone,
// Monday through Friday. Anything needing per-day windows belongs in SLA
// rules, not in more env keys.
type SupportConfig struct {
	// AIEnabled is the global kill switch for automated responses.
	AIEnabled bool

	// BusinessOpen/BusinessClose are HH:MM wall times (default 08:00-17:00).
	BusinessOpen  string
	BusinessClose string

	// Timezone is an IANA zone name for business-hours arithmetic.
	Timezone string

	// HumanOnlyChannel names a channel that never receives AI handling.
	HumanOnlyChannel string

	// DefaultPool is the routing pool used for the creation-time
	// auto-assignment attempt.
	DefaultPool string

	// ReportScanCap bounds how many conversations one compliance report
	// may scan.
	ReportScanCap int

	// AIConcurrency caps in-flight AI-processing tasks per workspace.
	AIConcurrency int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Support.AIEnabled = boolOrDefault("SUPPORT_AI_ENABLED", true)
	c.Support.BusinessOpen = strings.TrimSpace(os.Getenv("SUPPORT_BUSINESS_OPEN"))
	c.Support.BusinessClose = strings.TrimSpace(os.Getenv("SUPPORT_BUSINESS_CLOSE"))
	c.Support.Timezone = strings.TrimSpace(os.Getenv("SUPPORT_TIMEZONE"))
	c.Support.HumanOnlyChannel = strings.ToLower(strings.TrimSpace(os.Getenv("SUPPORT_HUMAN_ONLY_CHANNEL")))
	c.Support.DefaultPool = strings.TrimSpace(os.Getenv("SUPPORT_DEFAULT_POOL"))
	c.Support.ReportScanCap = intOrDefault("REPORT_SCAN_CAP", 0)
	c.Support.AIConcurrency = intOrDefault("SUPPORT_AI_CONCURRENCY", 0)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	// Support-desk knobs are all defaultable. Misconfiguration here falls
	// back to permissive behavior instead of refusing to boot.
	if c.Support.BusinessOpen == "" {
		c.Support.BusinessOpen = "08:00"
	}
	if c.Support.BusinessClose == "" {
		c.Support.BusinessClose = "17:00"
	}
	open, errOpen := parseClock(c.Support.BusinessOpen)
	if errOpen != nil {
		errs = append(errs, fmt.Errorf("SUPPORT_BUSINESS_OPEN must be HH:MM, got %q", c.Support.BusinessOpen))
	}
	closeAt, errClose := parseClock(c.Support.BusinessClose)
	if errClose != nil {
		errs = append(errs, fmt.Errorf("SUPPORT_BUSINESS_CLOSE must be HH:MM, got %q", c.Support.BusinessClose))
	}
	if errOpen == nil && errClose == nil && closeAt <= open {
		errs = append(errs, errors.New("SUPPORT_BUSINESS_CLOSE must be after SUPPORT_BUSINESS_OPEN"))
	}
	if c.Support.Timezone == "" {
		c.Support.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Support.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SUPPORT_TIMEZONE must be an IANA zone, got %q", c.Support.Timezone))
	}
	if c.Support.HumanOnlyChannel == "" {
		c.Support.HumanOnlyChannel = "voice"
	}
	if c.Support.DefaultPool == "" {
		c.Support.DefaultPool = "customer-service"
	}
	if c.Support.ReportScanCap <= 0 {
		c.Support.ReportScanCap = 5000
	}
	if c.Support.AIConcurrency <= 0 {
		c.Support.AIConcurrency = 4
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// BusinessWindow returns the configured daily window as minutes from
// midnight plus the resolved location. Validate() guarantees these parse;
// on a stale/invalid zone we degrade to UTC rather than failing a request.
func (c Config) BusinessWindow() (openMin, closeMin int, loc *time.Location) {
	openMin, _ = parseClock(c.Support.BusinessOpen)
	closeMin, _ = parseClock(c.Support.BusinessClose)
	loc, err := time.LoadLocation(c.Support.Timezone)
	if err != nil || loc == nil {
		loc = time.UTC
	}
	return openMin, closeMin, loc
}

// parseClock parses "HH:MM" into minutes from midnight.
func parseClock(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", v)
	}
	return h*60 + m, nil
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func boolOrDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func intOrDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
