package config

import (
	"fmt"

	"github.com/mylxsw/short-link/internal/allocator"
)

// Allocator 标识符分配器配置，启动后不可修改
type Allocator struct {
	Alphabet        string `json:"alphabet" yaml:"alphabet"`
	Width           int    `json:"width" yaml:"width"`
	ValidateRelease *bool  `json:"validate_release" yaml:"validate_release,omitempty"`
}

// populateDefault 填充默认值
func (conf Allocator) populateDefault() Allocator {
	if conf.Alphabet == "" {
		conf.Alphabet = allocator.DefaultAlphabet
	}

	if conf.Width == 0 {
		conf.Width = allocator.DefaultWidth
	}

	if conf.ValidateRelease == nil {
		enabled := true
		conf.ValidateRelease = &enabled
	}

	return conf
}

// validate 配置合法性检查
func (conf Allocator) validate() error {
	if _, err := conf.Encoder(); err != nil {
		return fmt.Errorf("invalid allocator: %w", err)
	}

	return nil
}

// Encoder builds the encoder described by the configuration
func (conf Allocator) Encoder() (*allocator.Encoder, error) {
	return allocator.NewEncoder(conf.Alphabet, conf.Width)
}

// ReleaseValidation reports whether Release should reject ids that are not active
func (conf Allocator) ReleaseValidation() bool {
	return conf.ValidateRelease == nil || *conf.ValidateRelease
}
