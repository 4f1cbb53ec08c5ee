// Package config loads configuration structs from environment variables
// with support for custom prefixes, automatic type conversion, and .env
// file loading.
//
// # Basic Usage
//
//	type Config struct {
//	    ClientID string        `env:"LINKEDIN_CLIENT_ID,required"`
//	    Timeout  time.Duration `env:"LINKEDIN_HTTP_TIMEOUT,default:30s"`
//	    Fields   []string      `env:"LINKEDIN_FIELDS,default:id,firstName,lastName"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// # Custom Prefixes
//
// The default prefix is "BEAVER_". Use LoadOptions to change it:
//
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "MYAPP_"})
//
// Packages in this module expose the same choice through a builder:
//
//	err := oauth.WithPrefix("MYAPP_").Init()
//
// # Environment File Support
//
// .env files are read with github.com/joho/godotenv before the process
// environment is consulted. Existing process variables are never
// overwritten by file values.
//
//	# .env
//	BEAVER_LINKEDIN_CLIENT_ID=your-client-id
//	BEAVER_LINKEDIN_CLIENT_SECRET=your-secret
package config
