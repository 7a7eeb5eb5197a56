// Command boost-client is a small CLI for exercising a running boost service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Flag descriptions.
const (
	flagServerDesc   = "Base URL of the boost service"
	flagUserDesc     = "User id to generate a boost for"
	flagDeliveryDesc = "Delivery mode: path, stream or url"
	flagOutputDesc   = "Output file for streamed audio (.mp3)"
	flagHealthDesc   = "Check service health and exit"
)

// Flag names.
const (
	flagServer   = "server"
	flagUser     = "user"
	flagDelivery = "delivery"
	flagOutput   = "output"
	flagHealth   = "health"
)

// Defaults.
const (
	defaultServer     = "http://localhost:8010"
	defaultOutputFile = "boost.mp3"
	requestTimeout    = 120 * time.Second
)

var errUserRequired = errors.New("--user is required unless --health is given")

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	server   string
	user     string
	delivery string
	output   string
	health   bool
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if flags.health {
		return checkHealth(ctx, flags.server)
	}

	if flags.user == "" {
		flag.Usage()

		return errUserRequired
	}

	return requestBoost(ctx, flags)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags
	flag.StringVar(&flags.server, flagServer, defaultServer, flagServerDesc)
	flag.StringVar(&flags.user, flagUser, "", flagUserDesc)
	flag.StringVar(&flags.delivery, flagDelivery, "", flagDeliveryDesc)
	flag.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.Parse()

	return flags
}

// checkHealth calls the service health endpoint and prints the verdict.
func checkHealth(ctx context.Context, server string) error {
	resp, err := doGet(ctx, server+"/health")
	if err != nil {
		fmt.Printf("Boost service is not healthy: %v\n", err)

		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Boost service is not healthy: %s\n", resp.Status)

		return fmt.Errorf("health check returned %s", resp.Status)
	}

	fmt.Println("Boost service is healthy")

	return nil
}

// requestBoost calls the boost endpoint and prints the JSON envelope, or
// saves the audio when streaming delivery was requested.
func requestBoost(ctx context.Context, flags appFlags) error {
	query := url.Values{}
	query.Set("user_id", flags.user)

	if flags.delivery != "" {
		query.Set("delivery", flags.delivery)
	}

	resp, err := doGet(ctx, flags.server+"/boost?"+query.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("boost request failed with %s: %s", resp.Status, string(body))
	}

	if flags.delivery == "stream" {
		writeErr := os.WriteFile(flags.output, body, 0o600)
		if writeErr != nil {
			return fmt.Errorf("failed to save audio: %w", writeErr)
		}

		fmt.Printf("Saved audio to %s (%d bytes, diary_used=%s)\n",
			flags.output, len(body), resp.Header.Get("X-Diary-Used"))

		return nil
	}

	fmt.Println(string(body))

	return nil
}

func doGet(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach service: %w", err)
	}

	return resp, nil
}
