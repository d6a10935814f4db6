package app_setting

import (
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"
)

// This is the app setting for the story submission pipeline.
type PipelineAppSetting struct {
	// Words rejected by the local moderation filter. Matched whole-word,
	// case-insensitive, before any external call is made.
	MODERATION_DENYLIST []string `yaml:"MODERATION_DENYLIST"`
	// Base url of the prompt enhancement service.
	ENHANCER_ENDPOINT string `yaml:"ENHANCER_ENDPOINT"`
	// Base url of the image generation service.
	IMAGE_ENDPOINT string `yaml:"IMAGE_ENDPOINT"`
	// Image generation fetch bound in seconds. A fetch exceeding this value
	// is surfaced as a timeout, distinct from other network failures.
	IMAGE_FETCH_TIMEOUT_SECOND int `yaml:"IMAGE_FETCH_TIMEOUT_SECOND"`
	// Generated image dimensions.
	IMAGE_WIDTH  int `yaml:"IMAGE_WIDTH"`
	IMAGE_HEIGHT int `yaml:"IMAGE_HEIGHT"`
	// Renderer model name passed to the image service.
	IMAGE_MODEL string `yaml:"IMAGE_MODEL"`
}

func ParsePipelineAppSetting(path string) PipelineAppSetting {
	c := PipelineAppSetting{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}

// DefaultPipelineAppSetting is used when no yaml file is provided, e.g. in
// development and in tests that don't care about tuning.
func DefaultPipelineAppSetting() PipelineAppSetting {
	return PipelineAppSetting{
		MODERATION_DENYLIST:        []string{"fuck", "shit", "bitch", "asshole", "bastard", "dick", "cunt"},
		ENHANCER_ENDPOINT:          "https://prompt-enhancer.onrender.com/enhance",
		IMAGE_ENDPOINT:             "https://image.pollinations.ai/prompt",
		IMAGE_FETCH_TIMEOUT_SECOND: 45,
		IMAGE_WIDTH:                1024,
		IMAGE_HEIGHT:               1024,
		IMAGE_MODEL:                "flux",
	}
}
