package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	MongoURI string `env:"MONGO-URI" ini:"mongo_uri"`
	Tenant   string `ini:"tenant"`

	HTTPHost string `ini:"http_host"`

	ChatModel           string `ini:"chat_model"`
	TranscriptionModel  string `ini:"transcription_model"`
	Language            string `ini:"transcription_language"`
	EnableTranscription bool   `ini:"enable_transcription"`
	MaxTokens           int    `ini:"max_tokens"`
}
