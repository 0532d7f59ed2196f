// live-console is an interactive terminal chat over a Gemini Live session.
// It connects, prints streamed model output and transcripts, and sends each
// stdin line as a user turn.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jayreddin/gemini-2-live-JR/credentials"
	"github.com/jayreddin/gemini-2-live-JR/events"
	"github.com/jayreddin/gemini-2-live-JR/live"
	"github.com/jayreddin/gemini-2-live-JR/logger"
)

var version = "dev"

func main() {
	var (
		configPath  string
		model       string
		voice       string
		modality    string
		system      string
		apiKey      string
		verbose     bool
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "live-console",
		Short: "Interactive console chat over a Gemini Live session",
		Long: `live-console opens one bidirectional Live API session and bridges it to
the terminal: stdin lines become user turns, streamed text and transcripts
print as they arrive, and tool calls are echoed for inspection.

The API key is read from --api-key, or from GEMINI_API_KEY / GOOGLE_API_KEY.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println("live-console", version)
				return nil
			}
			if verbose {
				logger.SetVerbose(true)
			}

			cfg, err := resolveConfig(configPath, model, voice, modality, system)
			if err != nil {
				return err
			}

			var provider credentials.Provider
			if apiKey != "" {
				provider = credentials.Static(apiKey)
			}

			return run(cmd.Context(), cfg, provider)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML session config file")
	rootCmd.Flags().StringVarP(&model, "model", "m", "", "model name (overrides config)")
	rootCmd.Flags().StringVar(&voice, "voice", "", "prebuilt voice for audio output")
	rootCmd.Flags().StringVar(&modality, "modality", "", "response modality: TEXT or AUDIO")
	rootCmd.Flags().StringVarP(&system, "system", "s", "", "system instruction")
	rootCmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "API key (defaults to environment)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveConfig loads the YAML file when given and lets flags override it.
func resolveConfig(path, model, voice, modality, system string) (live.Config, error) {
	var cfg live.Config
	if path != "" {
		loaded, err := live.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if model != "" {
		cfg.Model = model
	}
	if voice != "" {
		cfg.Voice = voice
	}
	if modality != "" {
		cfg.ResponseModalities = []string{strings.ToUpper(modality)}
	}
	if system != "" {
		cfg.SystemInstruction = system
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg live.Config, provider credentials.Provider) error {
	session, err := live.NewSession(cfg, provider)
	if err != nil {
		return err
	}
	defer session.Disconnect()

	done := make(chan struct{})
	wireListeners(session, done)

	fmt.Println("connecting...")
	if err := session.Connect(ctx); err != nil {
		return err
	}
	fmt.Println("connected. Type a message and press enter; Ctrl+C to quit.")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return fmt.Errorf("session ended")
		}
	})

	g.Go(func() error {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := session.SendText(ctx, line); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		return scanner.Err()
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nbye")
		return nil
	}
	return err
}

// wireListeners prints inbound events; done closes when the session ends.
func wireListeners(session *live.Session, done chan struct{}) {
	var once sync.Once
	closeOnce := func() { once.Do(func() { close(done) }) }

	session.On(live.EventText, func(e *events.Event) {
		fmt.Print(e.Data.(*live.TextData).Text)
	})
	session.On(live.EventTurnComplete, func(*events.Event) {
		fmt.Println()
	})
	session.On(live.EventInputTranscription, func(e *events.Event) {
		fmt.Printf("[you] %s\n", e.Data.(*live.TranscriptionData).Text)
	})
	session.On(live.EventOutputTranscription, func(e *events.Event) {
		fmt.Printf("[model] %s\n", e.Data.(*live.TranscriptionData).Text)
	})
	session.On(live.EventInterrupted, func(*events.Event) {
		fmt.Println("\n[interrupted]")
	})
	session.On(live.EventToolCall, func(e *events.Event) {
		for _, call := range e.Data.(*live.ToolCallData).Calls {
			fmt.Printf("[tool call] %s id=%s args=%v\n", call.Name, call.ID, call.Args)
		}
	})
	session.On(live.EventUsage, func(e *events.Event) {
		usage := e.Data.(*live.UsageMetadata)
		fmt.Printf("[usage] total tokens: %d\n", usage.TotalTokenCount)
	})
	session.On(live.EventAuthFailed, func(e *events.Event) {
		data := e.Data.(*live.DisconnectData)
		fmt.Fprintf(os.Stderr, "authentication failed (code %d): %s\n", data.Code, data.Reason)
		closeOnce()
	})
	session.On(live.EventDisconnected, func(e *events.Event) {
		data := e.Data.(*live.DisconnectData)
		fmt.Fprintf(os.Stderr, "disconnected (code %d)\n", data.Code)
		closeOnce()
	})
}
