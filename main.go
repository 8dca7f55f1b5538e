package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/benbjohnson/clock"

	"github.com/Musharaf05/HabitFlow/pkg/engine"
	"github.com/Musharaf05/HabitFlow/pkg/notify"
	"github.com/Musharaf05/HabitFlow/pkg/push"
	"github.com/Musharaf05/HabitFlow/pkg/source"
	"github.com/Musharaf05/HabitFlow/pkg/storage"
)

func main() {
	configPath := flag.String("config", "habitflow.yaml", "path to the config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Connect to the database
	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure that the tables exist
	if err = storage.Migrate(ctx, db); err != nil {
		log.Fatal(err)
	}

	items := storage.NewItems(db)
	state := storage.NewState(db)
	clk := clock.New()

	// Delivery channels
	banner := notify.NewBanner(os.Stdout, clk)
	dispatchOpts := []notify.DispatcherOption{
		notify.WithDispatcherClock(clk),
		notify.WithPrompter(notify.NewStaticPrompter(notify.PermissionGranted)),
		notify.WithDirect(notify.NewLogNotifier(log.New(os.Stderr, "[notification] ", log.LstdFlags))),
		notify.WithIcon(cfg.Notify.Icon),
	}

	var relay *push.Client
	if cfg.Push.Enabled {
		relayURL := cfg.Push.RelayURL
		if relayURL == "" {
			relayURL = cfg.selfURL()
		}
		relay = push.NewClient(relayURL)
		dispatchOpts = append(dispatchOpts, notify.WithRelay(relay))
	}
	dispatcher := notify.NewDispatcher(banner, dispatchOpts...)

	// Reminder feed
	src, err := buildSource(ctx, cfg, items)
	if err != nil {
		log.Fatal(err)
	}

	// Create the engine and poll for due reminders
	eng := engine.New(src, state, dispatcher,
		engine.WithClock(clk),
		engine.WithInterval(cfg.Engine.PollInterval),
	)
	go eng.Run(ctx)

	// Start a server for the HabitFlow API
	app := &App{
		cfg:    cfg,
		items:  items,
		engine: eng,
		fcm:    newFCM(cfg),
		logger: log.New(os.Stderr, "[server] ", log.LstdFlags),
	}
	go app.startServer()

	// Register the push token once configured
	if relay != nil && cfg.Push.Token != "" {
		go func() {
			if err := relay.RegisterToken(ctx, cfg.Push.Token); err != nil {
				log.Printf("Error saving token: %v", err)
			}
		}()
	}

	// Sleep until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
	log.Println("Shutting down")
}

func buildSource(ctx context.Context, cfg *Config, items *storage.Items) (engine.Source, error) {
	switch cfg.Source.Mode {
	case SourceHTTP:
		url := cfg.Source.HTTP.URL
		if url == "" {
			url = cfg.selfURL()
		}
		opts := []source.HTTPOption{}
		if cfg.Source.HTTP.Refresh > 0 {
			opts = append(opts, source.WithRefreshInterval(cfg.Source.HTTP.Refresh))
		}
		src := source.NewHTTP(url, opts...)
		go src.Run(ctx)
		return src, nil

	case SourceFile:
		src, err := source.NewFile(cfg.Source.File.Path, nil)
		if err != nil {
			return nil, err
		}
		go func() {
			if err := src.Run(ctx); err != nil {
				log.Printf("File source stopped: %v", err)
			}
		}()
		return src, nil

	default:
		return source.NewStore(items, nil), nil
	}
}

func newFCM(cfg *Config) *push.FCM {
	opts := []push.FCMOption{}
	if cfg.Push.FCMEndpoint != "" {
		opts = append(opts, push.WithFCMEndpoint(cfg.Push.FCMEndpoint))
	}
	return push.NewFCM(cfg.Push.FCMServerKey, opts...)
}
