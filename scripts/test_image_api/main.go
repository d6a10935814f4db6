// Ad hoc smoke test for the image generation service: fetches one image and
// writes it next to the script. Usage:
//
//	go run scripts/test_image_api/main.go -prompt "a watercolor beach at dusk"
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"time"

	"github.com/yifanzhou/storyshare/app_setting"
	"github.com/yifanzhou/storyshare/pipeline"
)

func main() {
	prompt := flag.String("prompt", "a watercolor beach at dusk", "image prompt")
	out := flag.String("out", "test_image.jpg", "output file")
	flag.Parse()

	setting := app_setting.DefaultPipelineAppSetting()
	client := pipeline.NewImageClient(
		setting.IMAGE_ENDPOINT,
		setting.IMAGE_WIDTH,
		setting.IMAGE_HEIGHT,
		setting.IMAGE_MODEL,
		time.Duration(setting.IMAGE_FETCH_TIMEOUT_SECOND)*time.Second,
	)

	fmt.Println("GET ", client.RequestURL(*prompt))
	payload, err := client.Fetch(*prompt)
	if err != nil {
		log.Fatal("fetch failed: ", err)
	}
	if err := ioutil.WriteFile(*out, payload, 0644); err != nil {
		log.Fatal("write failed: ", err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(payload), *out)
}
