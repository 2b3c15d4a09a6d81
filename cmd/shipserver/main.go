package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	shipcrypt "github.com/solward/shipserver/pkg/crypt"
	"github.com/solward/shipserver/pkg/ship"
)

// envDefault returns the environment variable value if set, otherwise the fallback.
func envDefault(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

func main() {
	confFile := flag.String("conf", envDefault("SHIP_CONF", ""), "Path to ship config file (env: SHIP_CONF)")
	scriptsDir := flag.String("scripts", envDefault("SHIP_SCRIPTS", ""), "Path to scripts directory, overrides config (env: SHIP_SCRIPTS)")
	eventList := flag.String("eventlist", envDefault("SHIP_EVENTLIST", ""), "Path to hook configuration document, overrides config (env: SHIP_EVENTLIST)")
	storageDB := flag.String("storagedb", envDefault("SHIP_STORAGEDB", ""), "Path to bbolt script storage file (env: SHIP_STORAGEDB)")
	sqlDBPath := flag.String("sqldb", envDefault("SHIP_SQLDB", ""), "Path to SQLite3 database file (env: SHIP_SQLDB)")
	adminPort := flag.Int("admin-port", 0, "Admin API port, overrides config (env: SHIP_ADMIN_PORT)")
	hashPass := flag.String("hashpass", "", "Print the crypt(3) hash of a password for admin_password_hash and exit")
	flag.Parse()

	if *hashPass != "" {
		fmt.Println(shipcrypt.Crypt(*hashPass, shipcrypt.RandomSalt()))
		return
	}

	if *adminPort == 0 {
		if envPort := os.Getenv("SHIP_ADMIN_PORT"); envPort != "" {
			if p, err := strconv.Atoi(envPort); err == nil {
				*adminPort = p
			}
		}
	}

	// Load ship config if specified, otherwise use defaults
	var conf *ship.Conf
	if *confFile != "" {
		var err error
		conf, err = ship.LoadConf(*confFile)
		if err != nil {
			log.Fatalf("Error loading ship config: %v", err)
		}
		log.Printf("Loaded ship config from %s", *confFile)
	} else {
		conf = ship.DefaultConf()
	}

	// Command-line flags override config file values
	if *scriptsDir != "" {
		conf.ScriptsDir = *scriptsDir
	}
	if *eventList != "" {
		conf.EventList = *eventList
	}
	if *storageDB != "" {
		conf.StorageDB = *storageDB
	}
	if *sqlDBPath != "" {
		conf.SQLEnabled = true
		conf.SQLDatabase = *sqlDBPath
	}
	if *adminPort != 0 {
		conf.AdminEnabled = true
		conf.AdminPort = *adminPort
	}

	// Env overrides for bool toggles
	if v := os.Getenv("SHIP_HOT_RELOAD"); v != "" {
		conf.HotReload = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SHIP_ADMIN"); v != "" {
		conf.AdminEnabled = strings.EqualFold(v, "true")
	}

	s, err := ship.New(conf)
	if err != nil {
		log.Fatalf("Error starting ship: %v", err)
	}

	log.Printf("Ship %q up: scripts=%s hooks=%d", conf.ShipName, conf.ScriptsDir, len(s.Bridge().Handlers()))

	if conf.HotReload {
		s.WatchHooks()
	}

	var admin *ship.AdminServer
	if conf.AdminEnabled {
		if conf.JWTSecret == "" {
			conf.JWTSecret = ship.GenerateJWTSecret()
			log.Printf("WARNING: jwt_secret not set; generated an ephemeral secret")
		}
		admin = ship.NewAdminServer(s, conf)
		go func() {
			if err := admin.Start(); err != nil {
				log.Fatalf("Admin server error: %v", err)
			}
		}()
	}

	// Block until asked to stop.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Printf("Shutting down...")
	if admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := admin.Stop(ctx); err != nil {
			log.Printf("WARNING: admin server shutdown: %v", err)
		}
		cancel()
	}
	s.Shutdown()
}
