/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
	FeedSync  = "feed_sync"
)

var (
	IsDevelopment  bool
	ServiceName    string
	ByPassAuth     bool
	AppSettingPath string
)

func init() {
	// Flags are only registered here; the entry point calls flag.Parse once
	// every package had its chance to register its own.
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", APIServer, "'api_server' or 'feed_sync'")
	flag.BoolVar(&ByPassAuth, "no_auth", false, "skip the identity provider check, local development only")
	flag.StringVar(&AppSettingPath, "app_setting", "", "path to the yaml app setting file, built-in defaults when empty")
}
