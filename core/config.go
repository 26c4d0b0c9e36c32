package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		AppName  string
		Build    string
		WorkDir  string

		RollbarToken string

		Database DatabaseConfig
		Report   ReportConfig
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
		Timeout    time.Duration
	}

	ReportConfig struct {
		// RowsPerPage is the number of data rows rendered per document page.
		RowsPerPage int
		// MaxTextLen is the truncation threshold for free-text cells.
		MaxTextLen int
		// Establishment appears in the document header.
		Establishment string
	}
)

func NewConfig(workDir string) (*Config, error) {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Escolar")
	conf.SetDefault("build", "dev")
	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseUser", "postgres")
	conf.SetDefault("databaseName", "escolar")
	conf.SetDefault("databaseTimeout", 30*time.Second)
	conf.SetDefault("reportRowsPerPage", 28)
	conf.SetDefault("reportMaxTextLen", 40)
	conf.SetDefault("reportEstablishment", "Liceo Municipal")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		Env:          env,
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		WorkDir:      workDir,
		RollbarToken: conf.GetString("rollbarToken"),
		Database: DatabaseConfig{
			Engine:     conf.GetString("databaseEngine"),
			Host:       conf.GetString("databaseHost"),
			Port:       conf.GetString("databasePort"),
			User:       conf.GetString("databaseUser"),
			Password:   conf.GetString("databasePassword"),
			Name:       conf.GetString("databaseName"),
			DisableTLS: conf.GetBool("databaseDisableTLS"),
			Timeout:    conf.GetDuration("databaseTimeout"),
		},
		Report: ReportConfig{
			RowsPerPage:   conf.GetInt("reportRowsPerPage"),
			MaxTextLen:    conf.GetInt("reportMaxTextLen"),
			Establishment: conf.GetString("reportEstablishment"),
		},
	}, nil
}

// Getwd tries to find the project root "escolar".
// go-test changes the working directory to the test package being run during tests...
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	root := "escolar"
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(currDir); err == nil {
			dirBase := filepath.Base(currDir)
			if dirBase == root && fi.IsDir() {
				return currDir
			}
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
