package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"unistore/component"
	"unistore/internal/components/counter"
	"unistore/internal/components/daylight"
	"unistore/internal/components/todolist"
	"unistore/internal/config"
	"unistore/internal/liveview"
	"unistore/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the liveview server",
		Long: `Start the liveview server.

The server loads app_config.yaml from the config directory, builds the
store from the registered components and serves rendered frames over
websockets until interrupted.

Example:
  unistore serve
  unistore serve --config-dir /etc/unistore --addr :9090 --log-level debug`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	logger, err := newLogger(opts.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	configDir := opts.ConfigDir
	if env := os.Getenv(config.EnvConfigDir); env != "" && !cmd.Flags().Changed("config-dir") {
		configDir = env
	}

	loader := config.NewLoader(configDir, logger.Named("config"))
	if err := loader.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	addr := loader.ListenAddr()
	if opts.Addr != "" {
		addr = opts.Addr
	}
	readOnly := config.ReadOnly()

	latitude, longitude := loader.Coordinates()
	rootReducer, err := store.CombineReducers(map[string]store.Reducer{
		counter.SliceName:  counter.NewReducer(loader.InitialCount()),
		todolist.SliceName: todolist.NewReducer(loader.SeedTodos()),
		daylight.SliceName: daylight.NewReducer(latitude, longitude),
	})
	if err != nil {
		return fmt.Errorf("failed to combine reducers: %w", err)
	}

	st, err := store.New(rootReducer,
		store.WithMiddleware(store.RunThunk),
		store.WithLogger(logger.Named("store")))
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	ctx, err := component.NewContext(st, logger)
	if err != nil {
		return err
	}
	ctx.ConfigDir = configDir

	srv := liveview.NewServer(st, liveview.Options{
		Addr:         addr,
		Title:        loader.Title(),
		TickInterval: loader.TickInterval(),
		ReadOnly:     readOnly,
		Logger:       logger.Named("liveview"),
	})

	created, err := component.CreateAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to create components: %w", err)
	}
	for _, c := range created {
		if err := srv.Host().MountComponent(c.Name, c.Component, nil); err != nil {
			return fmt.Errorf("failed to mount component %s: %w", c.Name, err)
		}
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Starting unistore",
		zap.String("addr", srv.Addr()),
		zap.Int("components", len(created)),
		zap.Bool("read_only", readOnly))
	if readOnly {
		logger.Info("Running in READ-ONLY mode - incoming actions will be rejected")
	}

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	runCtx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-runCtx.Done():
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", srv.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	srv.Run(runCtx)
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	logger.Info("Shut down gracefully")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
