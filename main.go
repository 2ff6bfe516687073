package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"unidash/pkg/app"
	"unidash/pkg/config"
	"unidash/pkg/dashboard"
	"unidash/pkg/event"
	"unidash/pkg/keys"
	"unidash/pkg/network"
	"unidash/pkg/rpc"
	"unidash/pkg/server"
	"unidash/pkg/tui"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version should be set during build
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "unidash",
		Short:        "Terminal dashboard for Uniswap positions and limit orders",
		Version:      Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runDashboard,
	}
	root.SetVersionTemplate("unidash version {{.Version}}\n")
	root.PersistentFlags().String("config", "", "config file path")
	config.BindFlags(root.Flags())

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Test configuration and connectivity, then exit",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
	config.BindFlags(checkCmd.Flags())
	checkCmd.Flags().Bool("json", false, "Output test results as JSON")
	root.AddCommand(checkCmd)

	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	return cfg, cfg.Validate()
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	sources, closeSources, err := buildSources(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSources()

	tui.Version = Version
	shared := app.NewShared(app.NewState())
	queue := event.NewQueue[app.NetworkEvent]()
	redraw := event.NewSignal()
	data := event.NewSignal()
	ticker := event.NewTicker(cfg.TickRate)
	defer ticker.Stop()
	shared.SetNetwork(queue)

	dispatcher := network.NewDispatcher(shared, queue, data, sources, cfg.LimitOrderInterval, logger)
	term := tui.NewTerminal()

	fatal := make(chan error, 1)
	go func() {
		defer term.RestoreOnPanic()
		fatal <- dispatcher.Run(ctx)
	}()

	if cfg.Port > 0 {
		srv := server.NewServer(shared, dispatcher, logger)
		go func() {
			if err := srv.Start(ctx, cfg.Port); err != nil {
				logger.Error("status API stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("dashboard start",
		zap.String("version", Version),
		zap.String("rpc", cfg.RPCURL),
		zap.Bool("mock_data", cfg.MockData),
		zap.Duration("tick_rate", cfg.TickRate),
		zap.Duration("limit_order_interval", cfg.LimitOrderInterval),
		zap.Int("port", cfg.Port),
	)

	term.Start()
	loop := dashboard.NewLoop(shared, term, keys.NewRouter(redraw), ticker, redraw, data, fatal, logger)
	runErr := func() error {
		defer term.RestoreOnPanic()
		return loop.Run(ctx)
	}()

	shared.SetNetwork(nil)
	queue.Close()
	cancel()
	if err := term.Close(); err != nil {
		logger.Warn("terminal closed with error", zap.Error(err))
	}

	if runErr != nil {
		logger.Error("dashboard stopped", zap.Error(runErr))
		return runErr
	}
	logger.Info("dashboard stopped")
	return nil
}

// buildSources wires the network sources from cfg. The returned func
// releases the RPC connection.
func buildSources(ctx context.Context, cfg config.Config, logger *zap.Logger) (network.Sources, func(), error) {
	if cfg.MockData {
		logger.Info("using mock data sources")
		return network.Sources{
			Resolver:   rpc.MockResolver{},
			Positions:  rpc.MockPositions{},
			LimitOrder: rpc.MockLimitOrders{},
		}, func() {}, nil
	}

	resolver, closeResolver, err := rpc.DialENSResolver(ctx, cfg.RPCURL, cfg.HTTPTimeout, logger)
	if err != nil {
		return network.Sources{}, nil, fmt.Errorf("connect rpc: %w", err)
	}
	markets := rpc.NewCoinGecko(cfg.CoinGeckoURL, cfg.HTTPTimeout)
	return network.Sources{
		Resolver:   resolver,
		Positions:  rpc.NewSubgraph(cfg.SubgraphURL, cfg.GraphAPIKey, cfg.HTTPTimeout, logger),
		LimitOrder: rpc.NewLimitOrders(cfg.LimitOrdersURL, markets, cfg.HTTPTimeout, logger),
	}, closeResolver, nil
}

func newLogger(level, path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// the terminal belongs to the UI, so nothing goes to stdout or stderr
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	return cfg.Build()
}

// checkReport is the result of the check command.
type checkReport struct {
	ConfigPath  string   `json:"config_path,omitempty"`
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors,omitempty"`
	MockData    bool     `json:"mock_data"`
	RPC         string   `json:"rpc,omitempty"`
	ChainID     int64    `json:"chain_id,omitempty"`
	RPCError    string   `json:"rpc_error,omitempty"`
	SubgraphURL string   `json:"subgraph_url,omitempty"`
	GraphAPIKey bool     `json:"graph_api_key"`
}

func runCheck(cmd *cobra.Command, _ []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	cfgFile, _ := cmd.Flags().GetString("config")
	out := cmd.OutOrStdout()

	report := checkReport{ConfigPath: cfgFile, Valid: true}
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, err.Error())
		return finishCheck(out, report, jsonOut)
	}

	report.MockData = cfg.MockData
	report.SubgraphURL = cfg.SubgraphURL
	report.GraphAPIKey = cfg.GraphAPIKey != ""
	if !report.GraphAPIKey && strings.Contains(cfg.SubgraphURL, "gateway.thegraph.com") && !cfg.MockData {
		report.Valid = false
		report.Errors = append(report.Errors, "graph-api-key is required for the Graph gateway")
	}

	if cfg.RPCURL != "" {
		report.RPC = cfg.RPCURL
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HTTPTimeout)
		defer cancel()
		id, err := chainID(ctx, cfg.RPCURL)
		if err != nil {
			report.RPCError = err.Error()
			if !cfg.MockData {
				report.Valid = false
			}
		} else {
			report.ChainID = id
		}
	}

	return finishCheck(out, report, jsonOut)
}

func chainID(ctx context.Context, url string) (int64, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return 0, err
	}
	defer client.Close()
	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get ChainID: %w", err)
	}
	return id.Int64(), nil
}

func finishCheck(out io.Writer, report checkReport, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		if report.RPC != "" {
			if report.RPCError != "" {
				fmt.Fprintf(out, "RPC: %s ... Failed: %s\n", report.RPC, report.RPCError)
			} else {
				fmt.Fprintf(out, "RPC: %s ... OK (ChainID: %d)\n", report.RPC, report.ChainID)
			}
		}
		if report.SubgraphURL != "" {
			fmt.Fprintf(out, "Subgraph: %s (api key set: %t)\n", report.SubgraphURL, report.GraphAPIKey)
		}
		if report.MockData {
			fmt.Fprintln(out, "Mock data enabled.")
		}
		for _, e := range report.Errors {
			fmt.Fprintf(out, "Error: %s\n", e)
		}
	}
	if !report.Valid {
		return fmt.Errorf("configuration check failed")
	}
	return nil
}
