package escapade

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/escapadeapp/escapade/escapade/database"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log    LogConfig         `toml:"log"`
	Web    WebConfig         `toml:"web"`
	DB     database.DBConfig `toml:"db"`
	Spaces struct {
		Key       string `toml:"key"`
		Secret    string `toml:"secret"`
		Region    string `toml:"region"`
		Bucket    string `toml:"bucket"`
		PhotoRoot string `toml:"photoroot"`
	} `toml:"spaces"`
}

type WebConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	AllowOrigins string `toml:"allow_origins"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}
