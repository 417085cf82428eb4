package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/npolar/icelastic-ws/internal/backend"
	"github.com/npolar/icelastic-ws/internal/defaults"
)

const (
	envPrefix     = "ICELASTIC_WS_"
	envJSONPrefix = envPrefix + "JSON_"
	envConfigFile = envPrefix + "CONFIG"
	envBackendURL = envPrefix + "BACKEND_URL"
	envPort       = envPrefix + "PORT"
)

type serviceConfigService struct {
	Port      string `toml:"port" json:"port,omitempty"`
	LogLevel  string `toml:"log_level" json:"log_level,omitempty"`
	LogFormat string `toml:"log_format" json:"log_format,omitempty"`
}

type serviceConfigBackend struct {
	Engine      string   `toml:"engine" json:"engine,omitempty"`
	Addresses   []string `toml:"addresses" json:"addresses,omitempty"`
	Index       string   `toml:"index" json:"index,omitempty"`
	Username    string   `toml:"username" json:"username,omitempty"`
	Password    string   `toml:"password" json:"password,omitempty"`
	ConnTimeout int      `toml:"conn_timeout" json:"conn_timeout,omitempty"`
	ReadTimeout int      `toml:"read_timeout" json:"read_timeout,omitempty"`
}

type serviceConfigSearch struct {
	CatchAll string `toml:"catch_all" json:"catch_all,omitempty"`
}

type serviceConfig struct {
	Service  serviceConfigService `toml:"service" json:"service"`
	Backend  serviceConfigBackend `toml:"backend" json:"backend"`
	Defaults defaults.Params      `toml:"defaults" json:"defaults"`
	Geo      defaults.GeoFields   `toml:"geo" json:"geo"`
	Search   serviceConfigSearch  `toml:"search" json:"search"`
}

func defaultConfig() *serviceConfig {
	reg := defaults.Builtin()

	return &serviceConfig{
		Service: serviceConfigService{
			Port:      "8080",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Backend: serviceConfigBackend{
			Engine:      backend.EngineElasticsearch,
			Addresses:   []string{"http://localhost:9200"},
			ConnTimeout: 5,
			ReadTimeout: 20,
		},
		Defaults: reg.DefaultParams(),
		Geo:      reg.DefaultGeoFields(),
		Search:   serviceConfigSearch{CatchAll: reg.CatchAll()},
	}
}

func getSortedJSONEnvVars() []string {
	var keys []string

	for _, keyval := range os.Environ() {
		key := strings.Split(keyval, "=")[0]
		if strings.HasPrefix(key, envJSONPrefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys
}

// loadConfig layers built-in values, an optional TOML file, JSON fragments
// from the environment and finally the single-value overrides.
func loadConfig(path string) (*serviceConfig, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(envConfigFile)
	}

	if path != "" {
		log.Infof("[CONFIG] loading %s ...", path)
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
		}
	}

	valid := true

	for _, env := range getSortedJSONEnvVars() {
		log.Infof("[CONFIG] loading %s ...", env)
		if val := os.Getenv(env); val != "" {
			dec := json.NewDecoder(bytes.NewReader([]byte(val)))
			dec.DisallowUnknownFields()

			if err := dec.Decode(cfg); err != nil {
				log.Errorf("error decoding %s: %s", env, err.Error())
				valid = false
			}
		}
	}

	if !valid {
		return nil, fmt.Errorf("json decode error(s) in %s* variables", envJSONPrefix)
	}

	// optional convenience overrides to simplify deployment config
	if url := os.Getenv(envBackendURL); url != "" {
		cfg.Backend.Addresses = strings.Split(url, ",")
	}
	if port := os.Getenv(envPort); port != "" {
		cfg.Service.Port = port
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.logConfig()

	return cfg, nil
}

func (cfg *serviceConfig) validate() error {
	var misc stringValidator

	misc.requireValue(cfg.Service.Port, "service port")
	misc.requireOneOf(cfg.Service.LogFormat, "log format", "text", "json")
	if _, err := log.ParseLevel(cfg.Service.LogLevel); err != nil {
		misc.requireOneOf(cfg.Service.LogLevel, "log level", "debug", "info", "warn", "error")
	}

	var be stringValidator
	be.setPrefix("backend ")

	be.requireOneOf(strings.ToLower(cfg.Backend.Engine), "engine", backend.EngineElasticsearch, backend.EngineOpenSearch)

	var addrs stringValidator
	addrs.setPrefix("backend ")

	if len(cfg.Backend.Addresses) == 0 {
		addrs.requireValue("", "addresses")
	}
	for _, a := range cfg.Backend.Addresses {
		addrs.requireValue(strings.TrimSpace(a), "address")
	}

	var def stringValidator
	def.setPrefix("defaults ")

	def.requirePositive(cfg.Defaults.Limit, "limit")
	def.requirePositive(cfg.Defaults.SizeFacet, "size_facet")
	def.requireValue(cfg.Geo.Longitude, "geo longitude field")
	def.requireValue(cfg.Geo.Latitude, "geo latitude field")
	def.requireValue(cfg.Search.CatchAll, "catch-all field")

	if misc.Invalid() || be.Invalid() || addrs.Invalid() || def.Invalid() {
		return fmt.Errorf("invalid configuration (see errors above)")
	}

	cfg.Backend.Addresses = addrs.Values()

	return nil
}

func (cfg *serviceConfig) logConfig() {
	redacted := *cfg
	if redacted.Backend.Password != "" {
		redacted.Backend.Password = "REDACTED"
	}

	bytes, err := json.Marshal(redacted)
	if err != nil {
		log.Errorf("error encoding service config json: %s", err.Error())
		return
	}

	log.Infof("[CONFIG] composite json:")
	log.Infof("%s", string(bytes))
}

func (cfg *serviceConfig) registry() *defaults.Registry {
	return defaults.New(defaults.Options{
		Params:   cfg.Defaults,
		Geo:      cfg.Geo,
		CatchAll: cfg.Search.CatchAll,
	})
}

func (cfg *serviceConfig) backendConfig() backend.Config {
	return backend.Config{
		Engine:      cfg.Backend.Engine,
		Addresses:   cfg.Backend.Addresses,
		Index:       cfg.Backend.Index,
		Username:    cfg.Backend.Username,
		Password:    cfg.Backend.Password,
		ConnTimeout: cfg.Backend.ConnTimeout,
		ReadTimeout: cfg.Backend.ReadTimeout,
	}
}

func configureLogging(cfg *serviceConfig) {
	if level, err := log.ParseLevel(cfg.Service.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if cfg.Service.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
