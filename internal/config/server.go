package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/mylxsw/go-utils/file"
	"github.com/mylxsw/go-utils/str"
	"gopkg.in/yaml.v3"
)

// LoadServerConfFromFile 从配置文件加载配置
func LoadServerConfFromFile(configPath string) (*Server, error) {
	if configPath == "" {
		return nil, errors.New("config file path is required")
	}

	if !file.Exist(configPath) {
		return nil, fmt.Errorf("config file %s not exist", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	return ParseServerConf(data)
}

// ParseServerConf 解析 yaml 配置
func ParseServerConf(data []byte) (*Server, error) {
	var conf Server
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}

	conf = conf.populateDefault()
	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

type Server struct {
	HTTPListen string `json:"http_listen" yaml:"http_listen"`
	RESPListen string `json:"resp_listen" yaml:"resp_listen,omitempty"`
	BaseURL    string `json:"base_url" yaml:"base_url"`
	DBPath     string `json:"db_path" yaml:"db_path"`

	Verbose bool   `json:"verbose" yaml:"verbose,omitempty"`
	LogPath string `json:"log_path" yaml:"log_path"`

	Allocator Allocator `json:"allocator" yaml:"allocator"`
}

// populateDefault 填充默认值
func (conf Server) populateDefault() Server {
	if conf.HTTPListen == "" {
		conf.HTTPListen = "127.0.0.1:8080"
	}

	if conf.BaseURL == "" {
		conf.BaseURL = "http://" + conf.HTTPListen
	}
	conf.BaseURL = strings.TrimRight(conf.BaseURL, "/")

	if conf.DBPath == "" {
		conf.DBPath = "short-link.db"
	}

	conf.Allocator = conf.Allocator.populateDefault()
	return conf
}

// validate 配置合法性检查
func (conf Server) validate() error {
	u, err := url.Parse(conf.BaseURL)
	if err != nil || u.Host == "" || !str.In(u.Scheme, []string{"http", "https"}) {
		return fmt.Errorf("invalid base_url: %s", conf.BaseURL)
	}

	if conf.RESPListen != "" && conf.RESPListen == conf.HTTPListen {
		return errors.New("resp_listen must differ from http_listen")
	}

	return conf.Allocator.validate()
}

// ShortURL returns the public url of a short identifier
func (conf Server) ShortURL(shortID string) string {
	return conf.BaseURL + "/" + shortID
}
