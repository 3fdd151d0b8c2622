// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the CLI's full set of knobs: flags on the command line take
// precedence over a config file, and a config file takes precedence over
// the zero value (spec.md's defaults).
//
// It doubles as the schema for an optional YAML config file, mirroring
// the config-file pattern the other_examples cloudpam repo uses for its
// daemon: one struct, one set of `yaml` tags, loaded once at startup.
type Config struct {
	ZoneFile    string `yaml:"zone_file"`
	NewZoneFile string `yaml:"new_zone_file"`
	SpoolDir    string `yaml:"spool_dir"`

	Addr  string `yaml:"addr"`
	NoTCP bool   `yaml:"no_tcp"`
	NoUDP bool   `yaml:"no_udp"`

	SOANS      string `yaml:"soa_ns"`
	SOAMbox    string `yaml:"soa_mbox"`
	SOARefresh uint32 `yaml:"soa_refresh"`
	SOARetry   uint32 `yaml:"soa_retry"`
	SOAExpire  uint32 `yaml:"soa_expire"`
	SOATTL     uint32 `yaml:"soa_ttl"`

	Debug bool `yaml:"debug"`
}

// loadConfigFile merges path's YAML contents into c, leaving fields the
// file doesn't mention untouched. A missing path is not an error: the
// config file is optional, per spec.md section 5's "non-interactive/
// daemon use" wiring in SPEC_FULL.md.
func loadConfigFile(c *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}
