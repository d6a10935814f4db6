// Ad hoc smoke test for the prompt enhancement service. Usage:
//
//	go run scripts/test_enhancer_api/main.go -prompt "Sunset beach"
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/yifanzhou/storyshare/app_setting"
	"github.com/yifanzhou/storyshare/pipeline"
)

func main() {
	prompt := flag.String("prompt", "A quiet morning in the mountains", "raw story content to enhance")
	flag.Parse()

	setting := app_setting.DefaultPipelineAppSetting()
	client := pipeline.NewEnhancerClient(setting.ENHANCER_ENDPOINT)

	description, err := client.Enhance(*prompt)
	if err != nil {
		log.Fatal("enhance failed: ", err)
	}
	fmt.Println("enhanced description:")
	fmt.Println(description)
}
