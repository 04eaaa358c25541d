package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/urbanpulse/resilience-api/api"
	"github.com/urbanpulse/resilience-api/external/cmr"
	"github.com/urbanpulse/resilience-api/geo"
	"github.com/urbanpulse/resilience-api/ingest"
	"github.com/urbanpulse/resilience-api/pipeline"
	"github.com/urbanpulse/resilience-api/schema"
	"github.com/urbanpulse/resilience-api/store"
)

var (
	server          *api.Server
	resilienceStore store.ResilienceStore
)

func initLog() {
	logLevel, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(logLevel)
	}

	log.SetOutput(os.Stdout)

	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
}

func loadConfig(file string) {
	// Config from file
	viper.SetConfigType("yaml")
	if file != "" {
		viper.SetConfigFile(file)
	}

	viper.AddConfigPath("/.config/")
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Println("No config file. Read config from env.")
		viper.AllowEmptyEnv(false)
	}

	// Config from env if possible
	viper.AutomaticEnv()
	viper.SetEnvPrefix("urban")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func regionConfig() schema.RegionConfig {
	return schema.RegionConfig{
		Name: viper.GetString("region.name"),
		Bounds: schema.Bounds{
			South: viper.GetFloat64("region.bounds.south"),
			North: viper.GetFloat64("region.bounds.north"),
			West:  viper.GetFloat64("region.bounds.west"),
			East:  viper.GetFloat64("region.bounds.east"),
		},
		ResolutionMeters: viper.GetInt("region.resolution_meters"),
		DefaultTile:      viper.GetString("region.default_tile"),
		MinValidPixels:   viper.GetInt("region.min_valid_pixels"),
	}
}

func loadVectors() pipeline.Vectors {
	wards, err := geo.LoadWards(viper.GetString("vectors.wards"))
	if err != nil {
		log.Panicf("load ward boundaries: %s", err)
	}

	facilities, err := geo.LoadFacilities(viper.GetString("vectors.facilities"))
	if err != nil {
		log.Panicf("load healthcare facilities: %s", err)
	}

	greenSpaces, err := geo.LoadGreenSpaces(viper.GetString("vectors.green_spaces"))
	if err != nil {
		log.Panicf("load green spaces: %s", err)
	}

	return pipeline.Vectors{
		Wards:       wards,
		Facilities:  facilities,
		GreenSpaces: greenSpaces,
	}
}

func buildRegistry(region schema.RegionConfig, httpClient *http.Client) *ingest.Registry {
	catalog := cmr.New(
		viper.GetString("earthdata.token"),
		viper.GetString("earthdata.url"),
		httpClient,
	)
	archive := ingest.NewArchive(catalog, viper.GetString("earthdata.archive_dir"), region.Bounds)
	allowBackfill := viper.GetBool("ingest.allow_synthetic_backfill")

	registry := ingest.NewRegistry()
	for _, src := range []ingest.RasterSource{
		ingest.NewLSTSource(archive, region),
		ingest.NewNDVISource(archive, region),
		ingest.NewNO2Source(archive, region, allowBackfill),
		ingest.NewSO2Source(archive, region, allowBackfill),
		ingest.NewPrecipSource(archive, region),
	} {
		if err := registry.Register(src); err != nil {
			log.Panicf("register raster source: %s", err)
		}
	}
	return registry
}

func main() {
	var configFile string

	initialCtx, cancelInitialization := context.WithCancel(context.Background())

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Server is preparing to shutdown")

		if initialCtx != nil && cancelInitialization != nil {
			log.Info("Cancelling initialization")
			cancelInitialization()
			<-initialCtx.Done()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if server != nil {
			log.Info("Shutdown api server")
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Server Shutdown:", err)
			}
		}

		if resilienceStore != nil {
			log.Info("Shutting down db store")
			resilienceStore.Close()
		}

		os.Exit(1)
	}()

	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.Parse()

	loadConfig(configFile)

	initLog()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	// Sentry
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              viper.GetString("sentry.dsn"),
		AttachStacktrace: true,
		Environment:      viper.GetString("sentry.environment"),
		Dist:             viper.GetString("sentry.dist"),
	}); err != nil {
		log.Error(err)
	}
	log.WithField("prefix", "init").Info("Initialized sentry")

	// initialise mongodb connections
	opts := options.Client().ApplyURI(viper.GetString("mongo.conn"))
	opts.SetMaxPoolSize(viper.GetUint64("mongo.pool"))
	mongoClient, err := mongo.NewClient(opts)
	if nil != err {
		log.Panicf("create mongo client with error: %s", err)
	}

	err = mongoClient.Connect(context.Background())
	if nil != err {
		log.Panicf("connect mongo database with error: %s", err)
	}
	resilienceStore = store.NewResilienceStore(mongoClient, viper.GetString("mongo.database"))
	log.WithField("prefix", "init").Info("Initialized mongodb store")

	region := regionConfig()
	vectors := loadVectors()
	log.WithField("prefix", "init").Infof("Loaded %d wards, %d facilities, %d green spaces",
		len(vectors.Wards), len(vectors.Facilities), len(vectors.GreenSpaces))

	cache, err := ingest.NewCache(viper.GetString("ingest.cache_dir"))
	if err != nil {
		log.Panicf("create raster cache: %s", err)
	}

	clock := clockwork.NewRealClock()
	orchestrator := ingest.NewOrchestrator(buildRegistry(region, httpClient), clock, cache)
	runner := pipeline.New(orchestrator, resilienceStore, region, clock, vectors)

	// Init http server
	server = api.NewServer(resilienceStore, runner, region)
	log.WithField("prefix", "init").Info("Initialized http server")

	// Remove initial context
	initialCtx = nil
	cancelInitialization = nil

	log.Fatal(server.Run(":" + viper.GetString("server.port")))
}
