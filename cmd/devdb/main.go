package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/zeldalab/zelda/data"
	"github.com/zeldalab/zelda/internal/config"
	"github.com/zeldalab/zelda/internal/models"
	"github.com/zeldalab/zelda/internal/services"
	"github.com/zeldalab/zelda/internal/store"
	"github.com/zeldalab/zelda/tests/helpers"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var seed bool
	flag.BoolVar(&seed, "seed", false, "seed the store with a sample run")
	flag.Parse()

	usage := `
Run a disposable RethinkDB container for local zelda development.

Usage:

devdb [-h] [-f ENV_FILE_PATH] [-seed]

ENV_FILE_PATH: path to the .env file
-seed: submit an embedded sample run after startup

example
  devdb -f /path/to/something/.env -seed
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	}

	ctx := context.Background()
	container, err := helpers.StartRethinkDB(ctx)
	if err != nil {
		log.Fatalf("Failed to start RethinkDB container: %v\n", err)
	}
	log.Printf("RethinkDB available at %s\n", container.Addr)

	if seed {
		if err := seedStore(container.Addr); err != nil {
			_ = container.Terminate(ctx)
			log.Fatalf("Failed to seed store: %v\n", err)
		}
		log.Printf("Seeded sample run %q\n", data.SampleRunName)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating container...\n", sig)
	if err := container.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate container: %v\n", err)
	}
}

// seedStore connects to the container and submits the embedded sample run.
func seedStore(addr string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("unexpected container address %s: %w", addr, err)
	}
	cfg.DBHost = host
	cfg.DBPort = port

	sess, err := store.Connect(cfg)
	if err != nil {
		return err
	}
	defer store.Close(sess)

	if err := store.EnsureDatabase(sess, cfg.DBName); err != nil {
		return err
	}
	if err := store.EnsureTables(sess); err != nil {
		return err
	}

	var payload models.Run
	if err := json.Unmarshal([]byte(data.SampleRunPayload), &payload); err != nil {
		return err
	}
	_, err = services.SubmitRun(sess, data.SampleRunName, payload)
	return err
}
