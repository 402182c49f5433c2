/*
Package cmd implements the queryfanout command-line interface: the fanout
run itself plus the serving, MCP, and session utility commands.
*/
package cmd

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
This will be written to the home directory of the user running the tool,
which allows a developer to easily override the config file.
*/
//go:embed cfg/*
var embedded embed.FS

var (
	projectName = "queryfanout"
	cfgFile     string
	verboseFlag bool

	rootCmd = &cobra.Command{
		Use:   "queryfanout",
		Short: "Fan a query out across AI chat services and aggregate the answers",
		Long:  longRoot,
	}
)

/*
Execute is the main entry point for the queryfanout CLI.
*/
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yml",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verboseFlag, "verbose", "v", false, "enable debug logging",
	)
}

/*
initConfig seeds the default config file into the user's home directory on
first run, then layers .env and the config file into viper. Environment
variables win over file values.
*/
func initConfig() {
	if err := writeConfig(); err != nil {
		log.Fatal(err)
	}

	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(home + "/." + projectName)
	viper.SetEnvPrefix("QUERYFANOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}

	if verboseFlag || viper.GetString("log.level") == "debug" {
		log.SetLevel(log.DebugLevel)
	}
}

/*
writeConfig writes the default config file to the user's home directory
when none exists yet.
*/
func writeConfig() (err error) {
	var (
		home, _ = os.UserHomeDir()
		fh      fs.File
		buf     bytes.Buffer
	)

	configDir := home + "/." + projectName
	if !checkFileExists(configDir) {
		if err = os.MkdirAll(configDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	for _, file := range []string{cfgFile} {
		fullPath := configDir + "/" + file

		if checkFileExists(fullPath) {
			continue
		}

		if fh, err = embedded.Open("cfg/" + file); err != nil {
			return fmt.Errorf("failed to open embedded config file: %w", err)
		}

		if _, err = io.Copy(&buf, fh); err != nil {
			fh.Close()
			return fmt.Errorf("failed to read embedded config file: %w", err)
		}

		if err = os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			fh.Close()
			return fmt.Errorf("failed to write config file: %w", err)
		}

		log.Info("wrote config file", "path", fullPath)
		buf.Reset()
		fh.Close()
	}

	return nil
}

func checkFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

var longRoot = `
queryfanout submits one query to multiple AI chat services (ChatGPT,
Perplexity) through remote browser sessions, waits for each answer using
completion heuristics, and aggregates the extracted answers, sources, and
related queries into a single JSON report.
`
