package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitsconnect/internal/bootstrap"
	"bitsconnect/internal/config"
	"bitsconnect/internal/observability"
	"bitsconnect/internal/seed"
	"bitsconnect/internal/server"

	"github.com/spf13/cobra"
)

var (
	cfg             *config.Config
	shutdownTracing func(context.Context) error

	seedOpts = seed.DefaultOptions()

	rootCmd = &cobra.Command{
		Use:           "bitsconnect",
		Short:         "BITS Connect campus social network backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg = loaded
			observability.InitLogger(cfg.Env, cfg.LogLevel)

			shutdownTracing, err = observability.InitTracing(cmd.Context(), observability.TracingConfig{
				ServiceName:  "bitsconnect-api",
				Environment:  cfg.Env,
				Enabled:      cfg.TracingEnabled,
				Exporter:     cfg.TracingExporter,
				OTLPEndpoint: cfg.OTLPEndpoint,
				SamplerRatio: cfg.TracingSampler,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if shutdownTracing == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdownTracing(ctx)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Restore state and serve the HTTP API",
		RunE:  runServe,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Fill the configured store with demo campus data",
		RunE:  runSeed,
	}
)

func init() {
	seedCmd.Flags().IntVar(&seedOpts.NumUsers, "users", seedOpts.NumUsers, "Number of users to create")
	seedCmd.Flags().IntVar(&seedOpts.NumPosts, "posts", seedOpts.NumPosts, "Number of posts to create")
	seedCmd.Flags().IntVar(&seedOpts.NumComments, "comments", seedOpts.NumComments, "Number of comments to create")
	seedCmd.Flags().IntVar(&seedOpts.NumMessages, "messages", seedOpts.NumMessages, "Number of chat messages to create")
	seedCmd.Flags().Int64Var(&seedOpts.RandomSeed, "random-seed", 0, "Seed for reproducible data (0 = random)")
	seedCmd.Flags().StringVar(&seedOpts.Password, "password", seed.DefaultPassword, "Password of every seeded account")

	rootCmd.AddCommand(serveCmd, seedCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		Store:    rt.Store,
		Services: rt.Services,
		Tokens:   rt.Tokens,
		Redis:    rt.Redis,
		Ready:    rt.Ready,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		observability.Logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			observability.Logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	listenErr := srv.Listen()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Close(ctx); err != nil {
		observability.Logger.Error("Runtime shutdown error", slog.String("error", err.Error()))
	}
	return listenErr
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}

	sum, runErr := seed.NewSeeder(rt.Services, seedOpts).Run(ctx)
	if err := rt.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return fmt.Errorf("seeding failed: %w", runErr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d posts, %d comments, %d votes, %d messages\n",
		sum.Users, sum.Posts, sum.Comments, sum.Votes, sum.Messages)
	return nil
}
