package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pspoerri/geoproj/internal/config"
	"github.com/pspoerri/geoproj/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// app carries the loaded configuration to the subcommands.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

func makeGeoprojCommand() *cobra.Command {
	a := &app{v: config.New()}
	command := &cobra.Command{
		Use:     "geoproj [command] (flags)",
		Short:   "geoproj converts coordinates between geodetic and projected reference systems.",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Long: `geoproj converts coordinates between geodetic and projected reference systems.

Points are read from stdin, one "x y" pair per line, and written to stdout.

Typical usage:
    echo "25 46" | geoproj project --degrees "+proj=sterea +lat_0=46 +lon_0=25 +k=0.99975 +x_0=500000 +y_0=500000 +ellps=krass"
        Project a point given in degrees.

    geoproj convert --from EPSG:2230 --to EPSG:26946 < feet.txt
        Convert state plane feet to metres.

    geoproj geojson --from EPSG:4326 --to EPSG:32632 cities.geojson -o cities-utm.geojson
        Reproject a GeoJSON document.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	flags := command.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./geoproj.yaml if present)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")
	flags.Int("workers", runtime.NumCPU(), "number of parallel workers")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("workers", flags.Lookup("workers"))

	command.AddCommand(makeInfoCommand(a))
	command.AddCommand(makeCRSCommand(a))
	command.AddCommand(makeRasterCommand(a))
	command.AddCommand(makeProjectCommand(a))
	command.AddCommand(makeConvertCommand(a))
	command.AddCommand(makeGeoJSONCommand(a))
	command.AddCommand(makePreviewCommand(a))
	command.AddCommand(makeServeCommand(a))
	return command
}

func main() {
	if err := makeGeoprojCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "geoproj: %v\n", err)
		os.Exit(1)
	}
}
