package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagCookiePath string
	flagOutputDir  string
	flagEnvFile    string
	flagDebug      bool
)

// Execute runs the xcrawl root command.
func Execute() error {
	root := &cobra.Command{
		Use:   "xcrawl",
		Short: "Harvest public X/Twitter posts matching account and keyword rules",
	}

	root.PersistentFlags().StringVar(&flagCookiePath, "cookies", "cookies.json", "path to the session cookie jar (default identity when run's --cookies-file is not given)")
	root.PersistentFlags().StringVar(&flagOutputDir, "output", "./output", "directory to write run output into")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "optional .env file to load")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.AddCommand(newRunCommand())
	root.AddCommand(newTweetCommand())
	root.AddCommand(newProfileCommand())

	return root.Execute()
}

func discardLogger() zerolog.Logger {
	return zerolog.Nop()
}
