package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/josephgoksu/causalfuse/internal/config"
	"github.com/spf13/viper"
)

// InitConfig loads .env and binds global settings to the environment. Run
// configuration files are read per command by config.Loader.
func InitConfig() {
	// It's okay if .env file doesn't exist.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		LogError("load .env", err)
	}

	viper.SetEnvPrefix(config.EnvPrefix) // e.g., CAUSALFUSE_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Verbose output enabled")
	}
}
