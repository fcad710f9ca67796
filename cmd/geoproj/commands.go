package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/encode"
	"github.com/pspoerri/geoproj/internal/geotiff"
	"github.com/pspoerri/geoproj/internal/metrics"
	"github.com/pspoerri/geoproj/internal/preview"
	"github.com/pspoerri/geoproj/internal/progress"
	"github.com/pspoerri/geoproj/internal/registry"
	"github.com/pspoerri/geoproj/internal/reproject"
	"github.com/pspoerri/geoproj/internal/server"
	"github.com/spf13/cobra"
)

// engineFlags selects an engine either from a definition argument or from
// a --from/--to CRS pair.
type engineFlags struct {
	from, to string
	area     string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "source CRS, e.g. EPSG:4326")
	cmd.Flags().StringVar(&f.to, "to", "", "target CRS, e.g. EPSG:32632")
	cmd.Flags().StringVar(&f.area, "area", "", "area of use west,south,east,north in degrees")
}

// build returns the engine and whether its geodetic side is in degrees.
func (f *engineFlags) build(args []string) (*geoproj.Engine, bool, error) {
	logger := geoproj.WithLogger(slog.Default())
	switch {
	case len(args) == 1 && f.from == "" && f.to == "":
		e, err := geoproj.New(args[0], logger)
		return e, false, err
	case len(args) == 0 && f.from != "" && f.to != "":
		var area *geoproj.AreaOfUse
		if f.area != "" {
			a, err := coord.ParseArea(f.area)
			if err != nil {
				return nil, false, err
			}
			area = &a
		}
		e, err := geoproj.NewKnownCRS(f.from, f.to, area, logger)
		return e, true, err
	}
	return nil, false, errors.New("give either a definition argument or both --from and --to")
}

func makeInfoCommand(a *app) *cobra.Command {
	var ef engineFlags
	cmd := &cobra.Command{
		Use:   "info [definition]",
		Short: "Print the identity and canonical definition of an engine as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := ef.build(args)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(e.Info())
		},
	}
	ef.register(cmd)
	return cmd
}

func makeCRSCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crs [id]",
		Short: "List the built-in CRS identifiers, or describe one.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, id := range reg.Codes() {
					crs, err := reg.Resolve(id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%-12s %s\n", id, crs.Name)
				}
				return nil
			}
			crs, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "id:         %s\n", crs.ID)
			fmt.Fprintf(out, "name:       %s\n", crs.Name)
			fmt.Fprintf(out, "definition: %s\n", crs.Definition)
			fmt.Fprintf(out, "axis order: %s\n", crs.AxisOrder)
			fmt.Fprintf(out, "area:       %s\n", crs.Area)
			for _, s := range crs.Shifts {
				fmt.Fprintf(out, "shift:      %s (towgs84=%s, area %s)\n", s.Name, s.ToWGS84, s.Area)
			}
			return nil
		},
	}
}

func makeRasterCommand(a *app) *cobra.Command {
	var (
		from, to string
		densify  int
	)
	cmd := &cobra.Command{
		Use:   "raster <file.tif>",
		Short: "Print the CRS and extent of a GeoTIFF, optionally converted to another CRS.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := geotiff.Open(args[0])
			if err != nil {
				return err
			}
			src := info.Code()
			if from != "" {
				src = from
			}

			out := cmd.OutOrStdout()
			crs := src
			if crs == "" {
				crs = "unknown"
			}
			b := info.Bounds()
			fmt.Fprintf(out, "crs:        %s\n", crs)
			fmt.Fprintf(out, "size:       %dx%d\n", info.Width, info.Height)
			fmt.Fprintf(out, "pixel size: %g %g\n", info.PixelSizeX, info.PixelSizeY)
			fmt.Fprintf(out, "bounds:     %.10g %.10g %.10g %.10g\n", b.MinX, b.MinY, b.MaxX, b.MaxY)
			if to == "" {
				return nil
			}
			if src == "" {
				return errors.New("raster has no EPSG code; pass --from")
			}

			e, err := geoproj.NewKnownCRS(src, to, nil, geoproj.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			fp, err := info.Footprint(e, densify)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %.9g %.9g %.9g %.9g\n", to, fp.MinX, fp.MinY, fp.MaxX, fp.MaxY)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "CRS of the raster when the file does not name one")
	cmd.Flags().StringVar(&to, "to", "", "also print the extent converted to this CRS")
	cmd.Flags().IntVar(&densify, "densify", 16, "points sampled along each edge of the extent")
	return cmd
}

func makeProjectCommand(a *app) *cobra.Command {
	var (
		inverse, degrees, strict bool
		precision                int
	)
	cmd := &cobra.Command{
		Use:   "project <definition>",
		Short: "Project points read from stdin with a definition string.",
		Long: `Project points read from stdin with a definition string.

Geodetic coordinates are longitude and latitude in radians, or degrees with
--degrees. With --inverse projected coordinates are turned back into
geodetic ones.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := geoproj.New(args[0], geoproj.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			opts := lineOptions{precision: precision, strict: strict}
			if degrees {
				if inverse {
					opts.outScale = geoproj.RadToDeg(1)
				} else {
					opts.inScale = geoproj.DegToRad(1)
				}
			}
			failed, err := processLines(cmd.InOrStdin(), cmd.OutOrStdout(), func(p geoproj.Point) (geoproj.Point, error) {
				return e.Project(p, inverse)
			}, opts)
			return reportFailed(failed, err)
		},
	}
	cmd.Flags().BoolVar(&inverse, "inverse", false, "inverse projection")
	cmd.Flags().BoolVar(&degrees, "degrees", false, "geodetic coordinates in degrees")
	cmd.Flags().BoolVar(&strict, "strict", false, "stop at the first failing point")
	cmd.Flags().IntVar(&precision, "precision", 6, "decimal digits in the output")
	return cmd
}

func makeConvertCommand(a *app) *cobra.Command {
	var (
		ef        engineFlags
		strict    bool
		precision int
	)
	cmd := &cobra.Command{
		Use:   "convert [definition]",
		Short: "Convert points read from stdin between two CRS.",
		Long: `Convert points read from stdin between two CRS given with --from and --to,
or run a definition string forward. Geographic coordinates of CRS pairs are
longitude and latitude in degrees.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := ef.build(args)
			if err != nil {
				return err
			}
			failed, err := processLines(cmd.InOrStdin(), cmd.OutOrStdout(), e.Convert, lineOptions{precision: precision, strict: strict})
			return reportFailed(failed, err)
		},
	}
	ef.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "stop at the first failing point")
	cmd.Flags().IntVar(&precision, "precision", 6, "decimal digits in the output")
	return cmd
}

func reportFailed(failed int, err error) error {
	if err != nil {
		return err
	}
	if failed > 0 {
		return errors.Newf("%d points failed", failed)
	}
	return nil
}

func makeGeoJSONCommand(a *app) *cobra.Command {
	var (
		ef           engineFlags
		output       string
		digits       int
		showProgress bool
	)
	cmd := &cobra.Command{
		Use:   "geojson [definition | input.geojson]",
		Short: "Reproject a GeoJSON document read from a file or stdin.",
		Long: `Reproject a GeoJSON FeatureCollection, Feature or geometry. With --from
and --to the argument names the input file; otherwise it is the definition
string and the document is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input []string
			if len(args) == 1 && ef.from != "" {
				input, args = args, nil
			}
			e, _, err := ef.build(args)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if len(input) == 1 && input[0] != "-" {
				f, err := os.Open(input[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			opts := reproject.Options{MaxDecimalDigits: digits, Concurrency: a.cfg.Workers}
			if showProgress {
				opts.Progress = progress.New(os.Stderr, "reproject", "features", 0)
				defer opts.Progress.Finish()
			}
			start := time.Now()
			if err := reproject.Document(cmd.Context(), e, r, w, opts); err != nil {
				return err
			}
			slog.Debug("reprojected", slog.Int64("features", opts.Progress.Processed()), slog.Duration("elapsed", time.Since(start)))
			return nil
		},
	}
	ef.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&digits, "precision", -1, "maximum decimal digits in the output, -1 for full precision")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar on stderr")
	return cmd
}

func makePreviewCommand(a *app) *cobra.Command {
	var (
		ef                     engineFlags
		output, format         string
		width, height, quality int
		step                   float64
		showProgress           bool
	)
	cmd := &cobra.Command{
		Use:   "preview [definition] -o preview.png",
		Short: "Render a graticule image of a projection.",
		Long: `Render a graticule image of a projection. The image covers the projected
extent of --area (the whole world by default); pixels the projection
cannot map are left transparent. CRS pairs need a geographic source.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			// --area selects the preview extent here, not a datum shift.
			areaFlag := ef.area
			ef.area = ""
			e, degrees, err := ef.build(args)
			if err != nil {
				return err
			}
			area := coord.World
			if areaFlag != "" {
				if area, err = coord.ParseArea(areaFlag); err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("width") {
				width = a.cfg.Preview.Width
			}
			if !cmd.Flags().Changed("height") {
				height = a.cfg.Preview.Height
			}
			if !cmd.Flags().Changed("quality") {
				quality = a.cfg.Preview.Quality
			}
			if format == "" {
				format = encode.FormatForPath(output)
			}
			enc, err := encode.NewEncoder(format, quality)
			if err != nil {
				return err
			}

			bounds, err := preview.Extent(e, area, degrees, 128)
			if err != nil {
				return err
			}
			cfg := preview.Config{
				Width:       width,
				Height:      height,
				Bounds:      bounds,
				Degrees:     degrees,
				Step:        step,
				Concurrency: a.cfg.Workers,
			}
			if showProgress {
				cfg.Progress = progress.New(os.Stderr, "preview", "rows", int64(height))
			}
			img, err := preview.Render(cmd.Context(), e, cfg)
			cfg.Progress.Finish()
			if err != nil {
				return err
			}
			defer preview.PutRGBA(img)

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := enc.Encode(f, img); err != nil {
				return errors.Wrapf(err, "encoding %s", output)
			}
			slog.Info("preview written",
				slog.String("path", output),
				slog.String("format", enc.Format()),
				slog.Float64("min_x", bounds.MinX), slog.Float64("min_y", bounds.MinY),
				slog.Float64("max_x", bounds.MaxX), slog.Float64("max_y", bounds.MaxY),
			)
			return nil
		},
	}
	ef.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image file")
	cmd.Flags().StringVar(&format, "format", "", "image format: png, jpeg, webp (default: from the file extension)")
	cmd.Flags().IntVar(&width, "width", 512, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 512, "image height in pixels")
	cmd.Flags().IntVar(&quality, "quality", 85, "JPEG/WebP quality 1-100")
	cmd.Flags().Float64Var(&step, "step", 10, "graticule spacing in degrees")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar on stderr")
	return cmd
}

func makeServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := server.New(*a.cfg, metrics.New(), slog.Default())

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return errors.Wrap(err, "listen")
			case sig := <-quit:
				slog.Info("shutdown signal received, draining connections", slog.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("forced shutdown", slog.String("error", err.Error()))
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
