package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mylxsw/go-utils/file"
	"gopkg.in/yaml.v3"
)

type Client struct {
	Server  string `json:"server" yaml:"server"`
	Timeout int    `json:"timeout" yaml:"timeout"`
}

// populateDefault 填充默认值
func (conf Client) populateDefault() Client {
	if conf.Server == "" {
		conf.Server = "http://127.0.0.1:8080"
	}

	if !strings.HasPrefix(conf.Server, "http://") && !strings.HasPrefix(conf.Server, "https://") {
		conf.Server = "http://" + conf.Server
	}
	conf.Server = strings.TrimRight(conf.Server, "/")

	if conf.Timeout <= 0 {
		conf.Timeout = 10
	}

	return conf
}

// LoadClientConfFromFile 从配置文件加载配置，文件不存在时使用默认配置
func LoadClientConfFromFile(configPath string) (*Client, error) {
	var conf Client
	if configPath != "" {
		if !file.Exist(configPath) {
			return nil, fmt.Errorf("config file %s not exist", configPath)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, err
		}
	}

	conf = conf.populateDefault()
	if conf.Server == "" {
		return nil, errors.New("server is required")
	}

	return &conf, nil
}

// WithServer overrides the server address, typically from a command line flag
func (conf Client) WithServer(server string) Client {
	if server == "" {
		return conf
	}

	conf.Server = server
	return conf.populateDefault()
}
