package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	MockEmailStoreFile  = "file"
	MockEmailStoreRedis = "redis"

	defaultMockEmailsPath = "storage/logs/mock_emails.json"
)

type Config struct {
	Port                string
	DatabaseURL         string
	Env                 string // either prod or dev, will disable https and few other bits
	SessionKey          []byte
	EmailAPIKey         string // transactional email API key, only required when mock mode is off
	NoReplyEmail        string // used for transactional emails
	SiteName            string
	SiteHost            string
	URLProtocol         string
	SentryDSN           string
	MailMockMode        bool   // record confirmation emails in the mock mailbox instead of sending them
	MockEmailStore      string // file or redis
	MockEmailsPath      string
	RedisURL            string
	JobPostsPerPage     int // default page size of the job post API
	ApplicationsPerPage int // page size of the admin applications list
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first when present.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "unable to load .env file")
	}
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	mailMockMode, err := parseBool("MAIL_MOCK_MODE", false)
	if err != nil {
		return Config{}, err
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" && !mailMockMode {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty unless MAIL_MOCK_MODE is enabled")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		siteName = "Job Board"
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		return Config{}, fmt.Errorf("SITE_HOST cannot be empty")
	}
	mockEmailStore := strings.ToLower(os.Getenv("MOCK_EMAIL_STORE"))
	if mockEmailStore == "" {
		mockEmailStore = MockEmailStoreFile
	}
	if mockEmailStore != MockEmailStoreFile && mockEmailStore != MockEmailStoreRedis {
		return Config{}, fmt.Errorf("MOCK_EMAIL_STORE must be one of %s, %s", MockEmailStoreFile, MockEmailStoreRedis)
	}
	mockEmailsPath := os.Getenv("MOCK_EMAILS_PATH")
	if mockEmailsPath == "" {
		mockEmailsPath = defaultMockEmailsPath
	}
	redisURL := os.Getenv("REDIS_URL")
	if mockEmailStore == MockEmailStoreRedis && redisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL cannot be empty when MOCK_EMAIL_STORE is redis")
	}
	jobPostsPerPage, err := parseInt("JOB_POSTS_PER_PAGE", 15)
	if err != nil {
		return Config{}, err
	}
	applicationsPerPage, err := parseInt("APPLICATIONS_PER_PAGE", 10)
	if err != nil {
		return Config{}, err
	}
	urlProtocol := "http://"
	if !strings.EqualFold(env, "dev") {
		urlProtocol = "https://"
	}

	return Config{
		Port:                port,
		DatabaseURL:         databaseURL,
		Env:                 env,
		SessionKey:          sessionKeyBytes,
		EmailAPIKey:         emailAPIKey,
		NoReplyEmail:        noReplyEmail,
		SiteName:            siteName,
		SiteHost:            siteHost,
		URLProtocol:         urlProtocol,
		SentryDSN:           os.Getenv("SENTRY_DSN"),
		MailMockMode:        mailMockMode,
		MockEmailStore:      mockEmailStore,
		MockEmailsPath:      mockEmailsPath,
		RedisURL:            redisURL,
		JobPostsPerPage:     jobPostsPerPage,
		ApplicationsPerPage: applicationsPerPage,
	}, nil
}

// SiteURL returns the absolute url for path on the configured site host.
func (c Config) SiteURL(path string) string {
	return c.URLProtocol + c.SiteHost + "/" + strings.TrimPrefix(path, "/")
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "unable to parse %s as bool", key)
	}
	return b, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "could not convert %s to int", key)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be greater than zero", key)
	}
	return n, nil
}
