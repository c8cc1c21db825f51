package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/proceduralarchitect/ismruntime/featureflag"
	ismhttp "github.com/proceduralarchitect/ismruntime/http"
	"github.com/proceduralarchitect/ismruntime/models"
	"github.com/proceduralarchitect/ismruntime/modules"
	"github.com/proceduralarchitect/ismruntime/modules/grid"
	ismwebsocket "github.com/proceduralarchitect/ismruntime/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The server version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "ism_runtime_info",
		Help:        "ISM runtime server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"ISM_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"ISM_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"ISM_PUBLIC_ENDPOINT"      help:"The public endpoint where this server is reachable."`
	LogLevel           string        `cli:""        env:"ISM_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"ISM_LOG_INDENT"           help:"Indent logs."`
	SyncClockInterval  time.Duration `cli:",hidden" env:"ISM_SYNC_CLOCK_INTERVAL"  help:"Client sync clock (heartbeat) message interval."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"ISM_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	LogSummaryInterval time.Duration `cli:",hidden" env:"ISM_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	CellSize           float64       `cli:""        env:"ISM_CELL_SIZE"            help:"The spatial index cell size in world units."`
	AppKeys            []string      `cli:",hidden" env:"ISM_APP_KEYS"             help:"Comma separated app keys allowed to connect. Empty allows any."`
	Events             eventsConfig  `cli:",hidden" env:"-"                        help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"ISM_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                        help:"Show version."`
	Help               bool          `cli:""        env:"-"                        help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"ISM_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"ISM_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"ISM_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"ISM_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		LogLevel:           logs.InfoLevel.String(),
		SyncClockInterval:  time.Second * 5,
		ClientIdleTimeout:  time.Minute * 5,
		LogSummaryInterval: time.Minute,
		CellSize:           grid.DefaultCellSize,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the instanced mesh runtime server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "ism-runtime",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	var service http.ServeMux

	service.Handle("/health", ismhttp.HandleWithCORS(http.HandlerFunc(ismhttp.HandleHealthCheck)))
	service.Handle("/version", ismhttp.HandleWithCORS(http.HandlerFunc(ismhttp.HandleVersion(version))))

	readinessCheck := func() bool {
		return true
	}
	service.Handle("/ready", ismhttp.HandleWithCORS(http.HandlerFunc(ismhttp.HandleReadyCheck(readinessCheck))))

	scenes := models.SceneStore{}

	featureFlags := featureflag.New(conf.FeatureFlags)

	service.Handle("/", ismhttp.HandleWithCORS(websocket.Server{
		Handshake: ismhttp.VerifyAppKey(conf.AppKeys),
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var rh ismwebsocket.Handler = &ismwebsocket.RealtimeHandler{
				ClientSyncClockInterval: conf.SyncClockInterval,
				ClientIdleTimeout:       conf.ClientIdleTimeout,
				Scenes:                  &scenes,
				Modules: []modules.Module{
					&grid.Module{
						CellSize:     conf.CellSize,
						FeatureFlags: featureFlags,
					},
				},
				FeatureFlags: featureFlags,
			}
			h := ismwebsocket.HandlerWithLogs(rh, conf.LogSummaryInterval)
			h = ismwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			ismwebsocket.Handle(ctx, conn, h)
		},
	}))

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", ismhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", ismhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("cell_size", conf.CellSize).
		Info("starting ism runtime server")

	ismhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			ismhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.CellSize <= 0 {
		return errors.New("cell size must be positive").
			WithTag("cell_size", conf.CellSize)
	}

	return nil
}
