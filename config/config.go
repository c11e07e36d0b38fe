package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.System.Workdir, c.GetLogDir(), c.GetDataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "PalengkePOS",
		Location: "Asia/Manila",
		Workdir:  "/var/palengke",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-palengke-1816-secret",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "palengke_v1",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/palengke/palengke.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvInt64Value(name string, f func(v int64)) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	var p int64
	if _, err := fmt.Sscanf(evalue, "%d", &p); err == nil {
		f(p)
	}
}

// LoadConfig reads the YAML config file and applies environment overrides.
// A missing file yields a copy of the defaults; overrides never touch the
// shared DefaultAppConfig.
func LoadConfig(cfile string) *AppConfig {
	defaults := *DefaultAppConfig
	appConfig := &defaults
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg := new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err == nil {
				appConfig = cfg
			}
		}
	}

	setEnvValue("PALENGKE_SYSTEM_WORKDIR", func(v string) { appConfig.System.Workdir = v })
	setEnvValue("PALENGKE_SYSTEM_DEBUG", func(v string) { appConfig.System.Debug = v == "true" })
	setEnvValue("PALENGKE_WEB_HOST", func(v string) { appConfig.Web.Host = v })
	setEnvValue("PALENGKE_WEB_SECRET", func(v string) { appConfig.Web.Secret = v })
	setEnvInt64Value("PALENGKE_WEB_PORT", func(v int64) { appConfig.Web.Port = int(v) })
	setEnvValue("PALENGKE_DB_HOST", func(v string) { appConfig.Database.Host = v })
	setEnvInt64Value("PALENGKE_DB_PORT", func(v int64) { appConfig.Database.Port = int(v) })
	setEnvValue("PALENGKE_DB_NAME", func(v string) { appConfig.Database.Name = v })
	setEnvValue("PALENGKE_DB_USER", func(v string) { appConfig.Database.User = v })
	setEnvValue("PALENGKE_DB_PWD", func(v string) { appConfig.Database.Passwd = v })
	setEnvValue("PALENGKE_LOGGER_MODE", func(v string) { appConfig.Logger.Mode = v })

	return appConfig
}
