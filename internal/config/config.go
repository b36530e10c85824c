/*
 * Copyright (c) 2024. Anton Starikov -- All Rights Reserved
 *
 * This file is part of MZTVC project.
 *
 * MZTVC is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/antst/mztvc/internal/logger"

	"github.com/pborman/getopt/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultMQTTURL      = "tcp://127.0.0.1:1883"
	defaultControlTopic = "mztvc/control"
	defaultDBFile       = "~/.mztvc.db"
	defaultConfigFile   = "config.yaml"
	DefaultAverageType  = "mean"
)

type Config struct {
	LogLevel   zapcore.Level          `yaml:"log_level"`
	MQTTConfig *MQTTConfig            `yaml:"mqtt"`
	DBFile     string                 `yaml:"db_file"`
	Outside    *OutsideConfig         `yaml:"outside"`
	Zones      map[string]*ZoneConfig `yaml:"zones"`
}

func defConfig() *Config {
	return &Config{
		Zones:      make(map[string]*ZoneConfig),
		Outside:    NewOutsideConfig(),
		MQTTConfig: NewMQTTConfig(),
		DBFile:     defaultDBFile,
	}
}

func prettyPrint(cfg *Config) {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		logger.L().Error("Failed to marshal config for pretty print", err)
		return
	}
	logger.L().Debugf("--- Config ---\n%s\n\n", string(d))
}

func (cfg *Config) FillDefaults() {
	cfg.MQTTConfig.FillDefaults()
	cfg.Outside.FillDefaults()
	for _, z := range cfg.Zones {
		z.FillDefaults()
	}
}

// Validate fails fast on configurations the regulation engine would refuse,
// before any controller starts.
func (cfg *Config) Validate() error {
	if len(cfg.Zones) == 0 {
		return errors.New("no zones configured")
	}
	for name, z := range cfg.Zones {
		if err := z.Validate(); err != nil {
			return errors.WithMessagef(err, "zone `%s`", name)
		}
	}
	return nil
}

func Get() *Config {
	cfg := defConfig()
	logLevel := getopt.StringLong("log-level", 'l', "", "log levels: debug, info, warn, error, dpanic, panic, fatal")
	configFile := getopt.StringLong("config", 'c', defaultConfigFile, "config file pathname")

	getopt.Parse()

	if err := readFile(cfg, *configFile); err != nil {
		log.Panicf("GetConfig: %v", err)
	}

	logger.L().Infof("Using config file `%v`", *configFile)
	dbFile := getopt.StringLong("db", 'd', cfg.DBFile, "DB file pathname")

	if *dbFile != "" {
		cfg.DBFile = *dbFile
	}
	logger.L().Infof("Using DB file `%v`", cfg.DBFile)

	cfg.FillDefaults()

	if err := cfg.Validate(); err != nil {
		log.Panicf("Invalid configuration: %v", err)
	}

	if *logLevel != "" {
		if err := cfg.LogLevel.Set(*logLevel); err != nil {
			logger.L().Errorf("Wrong log level `%v`: %v", *logLevel, err)
		}
	}
	logger.SetLogLevel(cfg.LogLevel)

	prettyPrint(cfg)

	return cfg
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

func readFile(cfg *Config, configFileName string) error {
	if !fileExists(configFileName) {
		return nil
	}

	f, err := os.Open(configFileName)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	return nil
}

func GetPTR[T any](v T) *T {
	return &v
}
