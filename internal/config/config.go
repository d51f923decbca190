package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// OCW source
	OCWBaseURL string

	// OCW course data bucket
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool

	// Contentful management API
	ContentfulBaseURL     string
	ContentfulSpaceID     string
	ContentfulEnvironment string
	ContentfulToken       string
	ContentfulRateLimit   int

	// Migration
	Publish         bool
	MaxCourses      int
	PrefetchWorkers int
	CacheSize       int

	// Report upload
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPKnownHosts            string
	SFTPInsecureIgnoreHostKey bool
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		OCWBaseURL: getenv("OCW_BASE_URL", "https://ocw.mit.edu"),

		S3Endpoint:  getenv("OCW_S3_ENDPOINT", "s3.amazonaws.com"),
		S3Region:    getenv("OCW_S3_REGION", "us-east-1"),
		S3Bucket:    getenv("OCW_S3_BUCKET", "open-learning-course-data"),
		S3AccessKey: os.Getenv("OCW_S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("OCW_S3_SECRET_KEY"),
		S3UseSSL:    getenvBool("OCW_S3_USE_SSL", true),

		ContentfulBaseURL:     getenv("CONTENTFUL_BASE_URL", "https://api.contentful.com"),
		ContentfulSpaceID:     os.Getenv("CONTENTFUL_SPACE_ID"),
		ContentfulEnvironment: getenv("CONTENTFUL_ENVIRONMENT", "master"),
		ContentfulToken:       os.Getenv("CONTENTFUL_MANAGEMENT_TOKEN"),
		ContentfulRateLimit:   getenvInt("CONTENTFUL_RATE_LIMIT", 7),

		Publish:         getenvBool("MIGRATE_PUBLISH", false),
		MaxCourses:      getenvInt("MIGRATE_MAX_COURSES", 0),
		PrefetchWorkers: getenvInt("MIGRATE_PREFETCH_WORKERS", 4),
		CacheSize:       getenvInt("MIGRATE_CACHE_SIZE", 4096),

		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPKnownHosts:            os.Getenv("SFTP_KNOWN_HOSTS"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", false),
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return v
}

func getenvBool(k string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return v
}
