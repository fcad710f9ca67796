package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj"
)

// lineOptions controls how point lines are read and written.
type lineOptions struct {
	precision int
	strict    bool
	// inScale and outScale multiply coordinates on the way in and out,
	// for degree input to radian engines.
	inScale, outScale float64
}

// parsePoint reads "x y" or "x,y", ignoring anything after the second
// value so that extra columns such as heights pass through.
func parsePoint(line string) (geoproj.Point, string, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) < 2 {
		return geoproj.Point{}, "", errors.Newf("expected two coordinates, got %q", line)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geoproj.Point{}, "", errors.Wrapf(err, "x coordinate")
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geoproj.Point{}, "", errors.Wrapf(err, "y coordinate")
	}
	return geoproj.Point{X: x, Y: y}, strings.Join(fields[2:], " "), nil
}

// processLines converts every point line of r and writes the results to w.
// Blank lines and lines starting with '#' are copied. A failing point is
// written as "* *" and logged, unless strict is set, in which case the run
// stops. It returns the number of failed points.
func processLines(r io.Reader, w io.Writer, fn func(geoproj.Point) (geoproj.Point, error), opts lineOptions) (int, error) {
	if opts.inScale == 0 {
		opts.inScale = 1
	}
	if opts.outScale == 0 {
		opts.outScale = 1
	}
	sc := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	failed := 0
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			fmt.Fprintln(bw, line)
			continue
		}
		p, rest, err := parsePoint(line)
		if err == nil {
			p, err = fn(geoproj.Point{X: p.X * opts.inScale, Y: p.Y * opts.inScale})
		}
		if err != nil {
			if opts.strict {
				return failed + 1, errors.Wrapf(err, "line %d", n)
			}
			failed++
			slog.Warn("point failed", slog.Int("line", n), slog.String("kind", geoproj.ErrorKind(err)), slog.String("error", err.Error()))
			fmt.Fprintln(bw, joinRest("* *", rest))
			continue
		}
		out := strconv.FormatFloat(p.X*opts.outScale, 'f', opts.precision, 64) + " " +
			strconv.FormatFloat(p.Y*opts.outScale, 'f', opts.precision, 64)
		fmt.Fprintln(bw, joinRest(out, rest))
	}
	if err := sc.Err(); err != nil {
		return failed, errors.Wrap(err, "reading points")
	}
	return failed, nil
}

func joinRest(s, rest string) string {
	if rest == "" {
		return s
	}
	return s + " " + rest
}
