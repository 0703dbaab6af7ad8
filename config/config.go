package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "QFORM_"

type Config struct {
	Addr           string
	DBUrl          string
	TokenSecret    string
	ShareSecret    string
	TokenTTL       time.Duration
	ShareTTL       time.Duration
	PublicURL      string
	SMTPAddr       string
	SMTPFrom       string
	SMTPUser       string
	SMTPPass       string
	AdminUser      string
	AdminPass      string
	MaxUploadBytes int64
	Debug          bool
}

// ParseFlags reads the command line. Every flag can also be given as a QFORM_*
// environment variable (e.g. QFORM_TOKEN_SECRET), optionally from a .env file in the
// working directory; explicit flags win.
func ParseFlags(args []string) (cfg Config, err error) {
	if err = loadEnvFile(".env"); err != nil {
		return
	}

	fs := flag.NewFlagSet("quick-form", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", env("host", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint("port", 80), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", env("db-url", "qform.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env("token-secret", ""), "secret key for token encryption and decryption")
	fs.StringVar(&cfg.ShareSecret, "share-secret", env("share-secret", ""), "secret key for signing share links")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", envUint("token-ttl", 120), "access token TTL in seconds")
	var shareTTL uint
	fs.UintVar(&shareTTL, "share-ttl", envUint("share-ttl", 30*24*3600), "share link TTL in seconds")
	fs.StringVar(&cfg.PublicURL, "public-url", env("public-url", ""), "base URL used in share links (default derived from host and port)")
	fs.StringVar(&cfg.SMTPAddr, "smtp-addr", env("smtp-addr", ""), "SMTP server host:port; invitations are only logged when empty")
	fs.StringVar(&cfg.SMTPFrom, "smtp-from", env("smtp-from", "forms@localhost"), "sender address for invitations")
	fs.StringVar(&cfg.SMTPUser, "smtp-user", env("smtp-user", ""), "SMTP username")
	fs.StringVar(&cfg.SMTPPass, "smtp-pass", env("smtp-pass", ""), "SMTP password")
	fs.StringVar(&cfg.AdminUser, "admin-user", env("admin-user", "admin"), "admin user created at startup")
	fs.StringVar(&cfg.AdminPass, "admin-pass", env("admin-pass", ""), "password of the admin user; no user is created when empty")
	var maxUpload uint
	fs.UintVar(&maxUpload, "max-upload", envUint("max-upload", 10<<20), "maximum upload size in bytes")
	fs.BoolVar(&cfg.Debug, "debug", envBool("debug"), "log at DEBUG level")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.ShareTTL = time.Duration(shareTTL) * time.Second
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.Url()
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.ShareSecret == "":
		err = errors.New("missing parameter -share-secret")
	case cfg.ShareSecret == cfg.TokenSecret:
		err = errors.New("-share-secret must differ from -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func envKey(name string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func env(name, fallback string) string {
	if v, ok := os.LookupEnv(envKey(name)); ok {
		return v
	}
	return fallback
}

func envUint(name string, fallback uint) uint {
	v, ok := os.LookupEnv(envKey(name))
	if !ok {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return uint(n)
}

func envBool(name string) bool {
	b, _ := strconv.ParseBool(os.Getenv(envKey(name)))
	return b
}
