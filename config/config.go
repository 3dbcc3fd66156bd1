package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// SiteLogo maps a domain substring to a logo file.
type SiteLogo struct {
	Domain string
	Path   string
}

// DomainPolicy describes how a marketplace's links are canonicalized.
// An empty Host keeps whatever host the link already has.
type DomainPolicy struct {
	Match     []string
	Host      string
	DropQuery bool
}

// Config is loaded once at startup and passed explicitly; nothing in it is mutated afterwards.
type Config struct {
	OutputDir string
	LogoDir   string
	FontPath  string

	UserAgent      string
	HTTPTimeout    time.Duration
	ImageTimeout   time.Duration
	BrowserTimeout time.Duration
	BrowserSettle  time.Duration

	ChromeDriverPath string
	SeleniumBasePort int

	Port string

	MongoURI      string
	MongoDatabase string
	AWSRegion     string
	S3Bucket      string

	LogLevel  string
	LogFormat string

	SiteLogos      []SiteLogo
	DefaultLogo    string
	AppLinkDomains []string
	DomainPolicies []DomainPolicy
}

// Load reads the .env file (if any) and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	logoDir := getEnv("LOGO_DIR", "logos")

	return &Config{
		OutputDir: getEnv("OUTPUT_DIR", "output"),
		LogoDir:   logoDir,
		FontPath:  getEnv("FONT_PATH", ""),

		UserAgent:      getEnv("USER_AGENT", DefaultUserAgent),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		ImageTimeout:   getEnvDuration("IMAGE_TIMEOUT", 10*time.Second),
		BrowserTimeout: getEnvDuration("BROWSER_TIMEOUT", 45*time.Second),
		BrowserSettle:  getEnvDuration("BROWSER_SETTLE", 3*time.Second),

		ChromeDriverPath: getEnv("CHROMEDRIVER_PATH", "/usr/local/bin/chromedriver"),
		SeleniumBasePort: getEnvInt("SELENIUM_BASE_PORT", 4444),

		Port: getEnv("PORT", "8080"),

		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "listing_poster"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:      getEnv("S3_BUCKET", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SiteLogos:      DefaultSiteLogos(logoDir),
		DefaultLogo:    filepath.Join(logoDir, "default.png"),
		AppLinkDomains: getEnvList("APP_LINK_DOMAINS", DefaultAppLinkDomains()),
		DomainPolicies: DefaultDomainPolicies(),
	}
}

// Validate reports settings that would make the pipeline misbehave.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	if c.HTTPTimeout <= 0 || c.ImageTimeout <= 0 || c.BrowserTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.SeleniumBasePort <= 0 || c.SeleniumBasePort > 65535 {
		return fmt.Errorf("SELENIUM_BASE_PORT out of range: %d", c.SeleniumBasePort)
	}
	return nil
}

// LogoFor returns the logo file for a host. Known hosts whose file is missing, and
// unknown hosts, get the default logo. The caller decides what to do if that is missing too.
func (c *Config) LogoFor(host string) string {
	host = strings.ToLower(host)
	for _, l := range c.SiteLogos {
		if strings.Contains(host, l.Domain) {
			if _, err := os.Stat(l.Path); err == nil {
				return l.Path
			}
			return c.DefaultLogo
		}
	}
	return c.DefaultLogo
}

func DefaultSiteLogos(dir string) []SiteLogo {
	entries := []struct{ domain, file string }{
		{"depop.com", "depop.png"},
		{"depop.app.link", "depop.png"},
		{"ebay.com", "ebay.png"},
		{"poshmark.com", "poshmark.png"},
		{"etsy.com", "etsy.png"},
		{"pinterest.com", "pinterest.png"},
		{"vinted.com", "vinted.png"},
		{"grailed.com", "grailed.png"},
		{"mercari.com", "mercari.png"},
		{"agedivy.com", "agedivy.png"},
	}
	logos := make([]SiteLogo, 0, len(entries))
	for _, e := range entries {
		logos = append(logos, SiteLogo{Domain: e.domain, Path: filepath.Join(dir, e.file)})
	}
	return logos
}

// DefaultAppLinkDomains lists redirectors that native apps intercept.
func DefaultAppLinkDomains() []string {
	return []string{
		"app.link",
		"app.adjust.com",
		"go.onelink.me",
		"click.etsy.com",
		"etsy.app.link",
		"l.instagram.com",
		"out.reddit.com",
	}
}

// DefaultDomainPolicies is ordered; the first match wins.
func DefaultDomainPolicies() []DomainPolicy {
	return []DomainPolicy{
		{Match: []string{"depop.com"}, Host: "www.depop.com", DropQuery: true},
		{Match: []string{"ebay.com"}, Host: "www.ebay.com", DropQuery: true},
		{Match: []string{"poshmark.com"}, Host: "poshmark.com", DropQuery: true},
		// iOS universal links only claim www.etsy.com, so the bare host opens Safari.
		{Match: []string{"etsy.com"}, Host: "etsy.com", DropQuery: true},
		{Match: []string{"mercari.com"}, Host: "www.mercari.com", DropQuery: true},
		{Match: []string{"pinterest.com", "pin.it"}, DropQuery: true},
		{Match: []string{"grailed.com"}, Host: "www.grailed.com", DropQuery: true},
		{Match: []string{"vinted.com"}, DropQuery: true},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if val := os.Getenv(key); val != "" {
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return fallback
}
