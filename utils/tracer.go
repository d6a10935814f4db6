package utils

import (
	"github.com/yifanzhou/storyshare/utils/dotenv"
	. "github.com/yifanzhou/storyshare/utils/flag"
	Logger "github.com/yifanzhou/storyshare/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// InitTracer starts the Datadog tracer. Call once from main.
func InitTracer() {
	env := "development"
	if dotenv.IsProdEnv() {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.Info("tracer initialized")
}

// CloseTracer stops the tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
