package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-o", "-n", "-k", "-s", "-p", "-m", "-w", "-e", "-r", "-t"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-o string   allowed CORS origin
//	-n string   media store cloud name
//	-k string   media store API key
//	-s string   media store API secret
//	-p string   upload preset
//	-m string   media backend (cloudinary|s3)
//	-w string   campaign webhook URL
//	-e string   environment (development|production)
//	-r int      max requests per rate-limit window
//	-t int      rate-limit window, minutes
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AllowedOrigin, "o", config.AllowedOrigin, "allowed CORS origin")
	fs.StringVar(&config.CloudName, "n", config.CloudName, "media store cloud name")
	fs.StringVar(&config.APIKey, "k", config.APIKey, "media store API key")
	fs.StringVar(&config.APISecret, "s", config.APISecret, "media store API secret")
	fs.StringVar(&config.UploadPreset, "p", config.UploadPreset, "upload preset")
	fs.StringVar(&config.MediaBackend, "m", config.MediaBackend, "media backend (cloudinary|s3)")
	fs.StringVar(&config.CampaignWebhookURL, "w", config.CampaignWebhookURL, "campaign webhook URL")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.IntVar(&config.RateLimitMax, "r", config.RateLimitMax, "max requests per window")

	window := fs.Int("t", int(config.RateLimitWindow.Minutes()), "rate limit window (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only override when given, so sub-minute windows from env survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.RateLimitWindow = time.Duration(*window) * time.Minute
		}
	})
}
