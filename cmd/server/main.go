package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yifanzhou/storyshare/app_setting"
	"github.com/yifanzhou/storyshare/engagement"
	"github.com/yifanzhou/storyshare/events"
	"github.com/yifanzhou/storyshare/feed"
	"github.com/yifanzhou/storyshare/filestore"
	"github.com/yifanzhou/storyshare/identity"
	"github.com/yifanzhou/storyshare/pipeline"
	"github.com/yifanzhou/storyshare/server"
	"github.com/yifanzhou/storyshare/server/middlewares"
	"github.com/yifanzhou/storyshare/social"
	"github.com/yifanzhou/storyshare/utils"
	"github.com/yifanzhou/storyshare/utils/dotenv"
	. "github.com/yifanzhou/storyshare/utils/flag"
	Logger "github.com/yifanzhou/storyshare/utils/log"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Logger.Log.Info("api server shutdown")
}

func newStatsdClient() *statsd.Client {
	client, err := statsd.New("127.0.0.1:8125")
	if err != nil {
		Logger.Log.Error("statsd disabled: ", err)
		return nil
	}
	return client
}

func newImageStore() filestore.ImageStore {
	if dotenv.IsProdEnv() {
		store, err := filestore.NewS3ImageStore(filestore.ProdS3ImageBucket, "us-west-1")
		if err != nil {
			Logger.Log.Fatal("fail to create S3 image store: ", err)
		}
		return store
	}
	store, err := filestore.NewLocalImageStore("dev")
	if err != nil {
		Logger.Log.Fatal("fail to create local image store: ", err)
	}
	return store
}

func newProfileCache() feed.ProfileCache {
	cache, err := feed.NewRedisProfileCache()
	if err != nil {
		Logger.Log.Info("redis not reachable, falling back to in-memory profile cache: ", err)
		return feed.NewMemoryProfileCache()
	}
	return cache
}

func newIdentityProvider() identity.Provider {
	if ByPassAuth {
		// Local development: any token authenticates as the dev user.
		return &identity.StaticProvider{Identities: map[string]*identity.Identity{
			"dev": {UserID: "dev_user", Name: "Dev User"},
		}}
	}
	provider, err := identity.NewCognitoProvider()
	if err != nil {
		Logger.Log.Fatal("fail to setup identity provider: ", err)
	}
	return provider
}

func main() {
	defer cleanup()

	flag.Parse()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	utils.InitTracer()
	utils.InitProfiler()

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("fail to connect to database: ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	bus := events.NewEventBus()
	stats := newStatsdClient()

	socialManager := social.NewManager(db, bus)
	engageManager := engagement.NewManager(db, bus, stats)
	pipe := pipeline.NewPipeline(db, bus, pipelineSetting(), newImageStore(), stats)
	projector := feed.NewProjector(db, bus, feed.NewFeedChannels(), newProfileCache())
	if err := projector.Run(context.Background()); err != nil {
		Logger.Log.Fatal("fail to start feed projector: ", err)
	}

	middlewares.Setup(newIdentityProvider())

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(ServiceName))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/", middlewares.Auth(db, socialManager))
	server.NewServer(socialManager, engageManager, pipe, projector).RegisterRoutes(api)

	Logger.Log.Info("api server starts up")
	router.Run(":8080")
}

func pipelineSetting() app_setting.PipelineAppSetting {
	if AppSettingPath == "" {
		return app_setting.DefaultPipelineAppSetting()
	}
	return app_setting.ParsePipelineAppSetting(AppSettingPath)
}
