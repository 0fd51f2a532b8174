// Package config holds the settings shared by the azura binaries. Values come
// from an optional YAML file, then the environment, then command-line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"azura/internal/nlu"
)

type Config struct {
	Server struct {
		Addr          string `yaml:"addr"`
		MaxConcurrent int64  `yaml:"maxconcurrent"`
	} `yaml:"server"`

	Model struct {
		Dir      string `yaml:"dir"`
		DataPath string `yaml:"datapath"`
		Retrain  bool   `yaml:"retrain"`

		Epochs       int     `yaml:"epochs"`
		LearningRate float64 `yaml:"learningrate"`
		BatchSize    int     `yaml:"batchsize"`
		L2           float64 `yaml:"l2"`
		TestSplit    float64 `yaml:"testsplit"`
		Seed         uint64  `yaml:"seed"`
	} `yaml:"model"`

	Client struct {
		ServerURL string        `yaml:"serverurl"`
		Timeout   time.Duration `yaml:"timeout"`
		Socket    string        `yaml:"socket"`
	} `yaml:"client"`

	Assistant struct {
		Location string `yaml:"location"`
		Voice    string `yaml:"voice"`
		Espeak   string `yaml:"espeak"`
	} `yaml:"assistant"`

	OpenAI struct {
		APIKey string `yaml:"apikey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Weather struct {
		APIKey  string `yaml:"apikey"`
		BaseURL string `yaml:"baseurl"`
	} `yaml:"weather"`

	Proxy string `yaml:"proxy"`
}

func Default() Config {
	var c Config
	c.Server.Addr = "127.0.0.1:8080"
	c.Server.MaxConcurrent = 8

	o := nlu.DefaultTrainOptions()
	c.Model.Dir = "model"
	c.Model.DataPath = "data/intents.csv"
	c.Model.Epochs = o.Epochs
	c.Model.LearningRate = o.LearningRate
	c.Model.BatchSize = o.BatchSize
	c.Model.L2 = o.L2
	c.Model.TestSplit = o.TestSplit
	c.Model.Seed = o.Seed

	c.Client.ServerURL = "http://127.0.0.1:8080"
	c.Client.Timeout = 10 * time.Second
	c.Client.Socket = "/tmp/azura.sock"

	c.Assistant.Voice = "en"
	c.Assistant.Espeak = "espeak-ng"
	return c
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("config %s is malformed: %w", path, err)
		}
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"AZURA_ADDR":          &c.Server.Addr,
		"AZURA_MODEL_DIR":     &c.Model.Dir,
		"AZURA_DATA_PATH":     &c.Model.DataPath,
		"AZURA_SERVER_URL":    &c.Client.ServerURL,
		"AZURA_SOCKET":        &c.Client.Socket,
		"AZURA_LOCATION":      &c.Assistant.Location,
		"AZURA_PROXY":         &c.Proxy,
		"OPENAI_API_KEY":      &c.OpenAI.APIKey,
		"OPENWEATHER_API_KEY": &c.Weather.APIKey,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("AZURA_RETRAIN"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AZURA_RETRAIN: %w", err)
		}
		c.Model.Retrain = b
	}
	if v, ok := lookup("AZURA_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AZURA_TIMEOUT: %w", err)
		}
		c.Client.Timeout = d
	}
	return nil
}

func (c Config) TrainOptions() nlu.TrainOptions {
	return nlu.TrainOptions{
		Epochs:       c.Model.Epochs,
		LearningRate: c.Model.LearningRate,
		BatchSize:    c.Model.BatchSize,
		L2:           c.Model.L2,
		TestSplit:    c.Model.TestSplit,
		Seed:         c.Model.Seed,
	}
}
