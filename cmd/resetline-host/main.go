// Command resetline-host brings up a board of reset controllers and
// serves them over the control protocol.
//
// The host reads a YAML board description, instantiates a driver for
// every device on it, registers the devices with the reset subsystem
// and exposes them to clients such as resetline-ctl. Without a board
// file it falls back to a built-in single-controller simulation board.
//
// Configuration is read from RESETLINE_* environment variables first;
// command-line flags override them.
//
// Usage:
//
//	resetline-host [flags]
//
// Flags:
//
//	-addr string       Listen address (default all interfaces on port 4750)
//	-board string      Board description file (default: built-in simulation board)
//	-psk string        Pre-shared key for session authentication
//	-log string        Protocol log file (.rlog)
//	-journal string    Operation journal database (SQLite)
//	-host-id string    Stable host identity (default: random UUID)
//	-interface string  Network interface for mDNS announcements
//	-log-level string  Console log level: debug, info, warn, error (default "info")
//	-no-mdns           Disable mDNS announcements
//
// Examples:
//
//	# Serve the built-in simulation board
//	resetline-host
//
//	# Serve a bench board with authentication and a protocol log
//	resetline-host -board bench.yaml -psk lab-secret -log bench.rlog
//
//	# Keep an operation journal for later inspection
//	resetline-host -board bench.yaml -journal bench.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/resetline-protocol/resetline-go/pkg/board"
	"github.com/resetline-protocol/resetline-go/pkg/control"
	"github.com/resetline-protocol/resetline-go/pkg/discovery"
	"github.com/resetline-protocol/resetline-go/pkg/journal"
	"github.com/resetline-protocol/resetline-go/pkg/log"
	"github.com/resetline-protocol/resetline-go/pkg/subsys"

	_ "github.com/resetline-protocol/resetline-go/pkg/simulate"
)

// Config holds the host configuration. Environment variables are read
// first; command-line flags override them.
type Config struct {
	Addr      string `env:"RESETLINE_ADDR"`
	BoardFile string `env:"RESETLINE_BOARD"`
	PSK       string `env:"RESETLINE_PSK"`
	LogFile   string `env:"RESETLINE_LOG"`
	Journal   string `env:"RESETLINE_JOURNAL"`
	HostID    string `env:"RESETLINE_HOST_ID"`
	Interface string `env:"RESETLINE_INTERFACE"`
	LogLevel  string `env:"RESETLINE_LOG_LEVEL" envDefault:"info"`
	NoMDNS    bool   `env:"RESETLINE_NO_MDNS"`
}

var config Config

func init() {
	if err := env.Parse(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(2)
	}

	flag.StringVar(&config.Addr, "addr", config.Addr, "Listen address (default all interfaces on port 4750)")
	flag.StringVar(&config.BoardFile, "board", config.BoardFile, "Board description file (default: built-in simulation board)")
	flag.StringVar(&config.PSK, "psk", config.PSK, "Pre-shared key for session authentication")
	flag.StringVar(&config.LogFile, "log", config.LogFile, "Protocol log file (.rlog)")
	flag.StringVar(&config.Journal, "journal", config.Journal, "Operation journal database (SQLite)")
	flag.StringVar(&config.HostID, "host-id", config.HostID, "Stable host identity (default: random UUID)")
	flag.StringVar(&config.Interface, "interface", config.Interface, "Network interface for mDNS announcements")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Console log level: debug, info, warn, error")
	flag.BoolVar(&config.NoMDNS, "no-mdns", config.NoMDNS, "Disable mDNS announcements")
}

func main() {
	flag.Parse()

	logger := newConsoleLogger(config.LogLevel)

	if config.HostID == "" {
		config.HostID = uuid.New().String()
	}

	// Load the board description
	brd := board.Default()
	if config.BoardFile != "" {
		var err error
		brd, err = board.Load(config.BoardFile)
		if err != nil {
			logger.Error("loading board", "error", err)
			os.Exit(1)
		}
	}

	// Protocol event logging
	protoLog, closeLog, err := buildProtocolLogger(logger)
	if err != nil {
		logger.Error("opening protocol log", "error", err)
		os.Exit(1)
	}

	// Bring the board up
	sub := subsys.New()
	sub.SetLogger(protoLog)

	bu, err := board.Bring(sub, brd)
	if err != nil {
		logger.Error("board bringup", "error", err)
		closeLog()
		os.Exit(1)
	}
	logger.Info("board up",
		"board", brd.Name,
		"host_id", config.HostID,
		"controllers", len(bu.Registrations()))

	// Operation journal
	var jnl *journal.Journal
	if config.Journal != "" {
		jnl, err = journal.Open(config.Journal)
		if err != nil {
			logger.Error("opening journal", "error", err)
			bu.Close()
			closeLog()
			os.Exit(1)
		}
		logger.Info("journal open", "path", config.Journal)
	}

	// Control server
	serverConfig := control.ServerConfig{
		Address: config.Addr,
		Logger:  protoLog,
	}
	if config.PSK != "" {
		serverConfig.PSK = []byte(config.PSK)
	}
	if jnl != nil {
		serverConfig.OnOperation = func(rec control.OpRecord) {
			err := jnl.Record(journal.Entry{
				Time:         rec.Time,
				ConnectionID: rec.ConnectionID,
				Controller:   rec.Controller,
				Op:           rec.Op,
				Line:         rec.Line,
				Result:       rec.Result,
			})
			if err != nil {
				logger.Warn("journal write", "error", err)
			}
		}
	}

	server, err := control.NewServer(sub, serverConfig)
	if err != nil {
		logger.Error("creating control server", "error", err)
		shutdown(logger, nil, nil, bu, jnl, closeLog)
		os.Exit(1)
	}
	if err := server.Start(); err != nil {
		logger.Error("starting control server", "error", err)
		shutdown(logger, nil, nil, bu, jnl, closeLog)
		os.Exit(1)
	}
	logger.Info("control server listening",
		"addr", server.Addr().String(),
		"authenticated", config.PSK != "")

	// mDNS announcement
	var announcer *discovery.Announcer
	if !config.NoMDNS {
		announcer = startAnnouncer(logger, brd.Name, len(bu.Registrations()), server.Addr())
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	shutdown(logger, announcer, server, bu, jnl, closeLog)
}

// shutdown tears the host down in reverse bringup order: stop
// announcing, stop serving, tear the board down, then close the
// journal and log.
func shutdown(logger *slog.Logger, announcer *discovery.Announcer, server *control.Server, bu *board.Bringup, jnl *journal.Journal, closeLog func()) {
	if announcer != nil {
		announcer.Stop()
	}
	if server != nil {
		if err := server.Stop(); err != nil {
			logger.Error("stopping control server", "error", err)
		}
	}
	if bu != nil {
		if err := bu.Close(); err != nil {
			logger.Error("board teardown", "error", err)
		}
	}
	if jnl != nil {
		if err := jnl.Close(); err != nil {
			logger.Error("closing journal", "error", err)
		}
	}
	closeLog()
}

// newConsoleLogger builds the slog logger for operational messages.
func newConsoleLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info", "":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Unknown log level %q, using info\n", level)
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// buildProtocolLogger assembles the event logger: a CBOR file log when
// -log is set, mirrored to the console at debug level. The returned
// func closes the file log.
func buildProtocolLogger(console *slog.Logger) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeLog := func() {}

	if config.LogFile != "" {
		fl, err := log.NewFileLogger(config.LogFile)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closeLog = func() {
			if err := fl.Close(); err != nil {
				console.Error("closing protocol log", "error", err)
			}
		}
	}
	if config.LogLevel == "debug" {
		loggers = append(loggers, log.NewSlogAdapter(console))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closeLog, nil
	case 1:
		return loggers[0], closeLog, nil
	default:
		return log.NewMultiLogger(loggers...), closeLog, nil
	}
}

// startAnnouncer begins mDNS announcement of the host. mDNS failure is
// not fatal; the host still serves direct connections.
func startAnnouncer(logger *slog.Logger, boardName string, controllers int, addr net.Addr) *discovery.Announcer {
	advConfig := discovery.DefaultAdvertiserConfig()
	advConfig.Interface = config.Interface

	advertiser, err := discovery.NewMDNSAdvertiser(advConfig)
	if err != nil {
		logger.Warn("mDNS unavailable", "error", err)
		return nil
	}

	announcer := discovery.NewAnnouncer(advertiser, discovery.HostInfo{
		HostID:      config.HostID,
		Board:       boardName,
		Controllers: controllers,
		Port:        listenPort(addr),
	})
	if err := announcer.Start(context.Background()); err != nil {
		logger.Warn("mDNS announce", "error", err)
		return nil
	}

	logger.Info("announced via mDNS", "board", boardName, "host_id", config.HostID)
	return announcer
}

func listenPort(addr net.Addr) uint16 {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return uint16(tcp.Port)
	}
	return control.DefaultPort
}
