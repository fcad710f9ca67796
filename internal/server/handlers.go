package server

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pspoerri/geoproj"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/preview"
	"github.com/pspoerri/geoproj/internal/projerr"
)

var startedAt = time.Now()

const maxPreviewSize = 4096

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"uptime":  time.Since(startedAt).String(),
		"engines": s.engines.len(),
	})
}

// projectRequest runs a definition engine. With Degrees set, geodetic
// coordinates on either side are given and returned in degrees.
type projectRequest struct {
	Definition string       `json:"definition"`
	Inverse    bool         `json:"inverse"`
	Degrees    bool         `json:"degrees"`
	Points     [][2]float64 `json:"points"`
}

// convertRequest runs a CRS pair engine, or a definition engine when
// Definition is set instead of From and To.
type convertRequest struct {
	From       string       `json:"from"`
	To         string       `json:"to"`
	Area       string       `json:"area"`
	Definition string       `json:"definition"`
	Points     [][2]float64 `json:"points"`
	Parallel   bool         `json:"parallel"`
}

type pointsResponse struct {
	Points [][2]float64 `json:"points"`
}

func (s *Server) checkPoints(c *fiber.Ctx, n int) error {
	if n == 0 {
		return errBadRequest(c, "points must not be empty")
	}
	if n > s.cfg.Server.MaxPoints {
		return errBadRequest(c, fmt.Sprintf("at most %d points per request, got %d", s.cfg.Server.MaxPoints, n))
	}
	return nil
}

func (s *Server) definitionEngine(def string) (*geoproj.Engine, error) {
	e, cached, err := s.engines.get("def:"+def, func() (*geoproj.Engine, error) {
		return geoproj.New(def, geoproj.WithLogger(s.logger))
	})
	s.countBuild(cached, err)
	return e, err
}

func (s *Server) crsEngine(from, to, area string) (*geoproj.Engine, error) {
	key := "crs:" + from + "|" + to + "|" + area
	e, cached, err := s.engines.get(key, func() (*geoproj.Engine, error) {
		var aou *geoproj.AreaOfUse
		if area != "" {
			a, err := coord.ParseArea(area)
			if err != nil {
				return nil, projerr.Mark(err, projerr.ErrInvalidParameter)
			}
			aou = &a
		}
		return geoproj.NewKnownCRS(from, to, aou, geoproj.WithLogger(s.logger))
	})
	s.countBuild(cached, err)
	return e, err
}

func (s *Server) countBuild(cached bool, err error) {
	switch {
	case err != nil:
		s.metrics.EnginesBuilt.WithLabelValues("error").Inc()
	case cached:
		s.metrics.EnginesBuilt.WithLabelValues("cached").Inc()
	default:
		s.metrics.EnginesBuilt.WithLabelValues("ok").Inc()
	}
}

func toPoints(in [][2]float64, scale float64) []geoproj.Point {
	out := make([]geoproj.Point, len(in))
	for i, p := range in {
		out[i] = geoproj.Point{X: p[0] * scale, Y: p[1] * scale}
	}
	return out
}

func fromPoints(in []geoproj.Point, scale float64) [][2]float64 {
	out := make([][2]float64, len(in))
	for i, p := range in {
		out[i] = [2]float64{p.X * scale, p.Y * scale}
	}
	return out
}

func (s *Server) project(c *fiber.Ctx) error {
	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid JSON body: "+err.Error())
	}
	if req.Definition == "" {
		return errBadRequest(c, "definition is required")
	}
	if err := s.checkPoints(c, len(req.Points)); err != nil {
		return err
	}
	e, err := s.definitionEngine(req.Definition)
	if err != nil {
		return s.errEngine(c, err)
	}

	in, out := 1.0, 1.0
	if req.Degrees {
		if req.Inverse {
			out = geoproj.RadToDeg(1)
		} else {
			in = geoproj.DegToRad(1)
		}
	}
	points := toPoints(req.Points, in)
	if err := e.ProjectBatch(points, req.Inverse); err != nil {
		return s.errEngine(c, err)
	}

	op := "project"
	if req.Inverse {
		op = "project_inverse"
	}
	s.metrics.PointsConverted.WithLabelValues(op).Add(float64(len(points)))
	return c.JSON(pointsResponse{Points: fromPoints(points, out)})
}

func (s *Server) convert(c *fiber.Ctx) error {
	var req convertRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid JSON body: "+err.Error())
	}
	if err := s.checkPoints(c, len(req.Points)); err != nil {
		return err
	}

	var (
		e   *geoproj.Engine
		err error
	)
	switch {
	case req.Definition != "" && req.From == "" && req.To == "":
		e, err = s.definitionEngine(req.Definition)
	case req.Definition == "" && req.From != "" && req.To != "":
		e, err = s.crsEngine(req.From, req.To, req.Area)
	default:
		return errBadRequest(c, "either definition or both from and to are required")
	}
	if err != nil {
		return s.errEngine(c, err)
	}

	points := toPoints(req.Points, 1)
	if req.Parallel {
		err = e.ConvertBatchParallel(c.UserContext(), points, s.cfg.Workers)
	} else {
		err = e.ConvertBatch(points)
	}
	if err != nil {
		return s.errEngine(c, err)
	}
	s.metrics.PointsConverted.WithLabelValues("convert").Add(float64(len(points)))
	return c.JSON(pointsResponse{Points: fromPoints(points, 1)})
}

func (s *Server) engineFromQuery(c *fiber.Ctx) (*geoproj.Engine, bool, error) {
	def := c.Query("def")
	from, to := c.Query("from"), c.Query("to")
	switch {
	case def != "" && from == "" && to == "":
		e, err := s.definitionEngine(def)
		return e, false, err
	case def == "" && from != "" && to != "":
		e, err := s.crsEngine(from, to, c.Query("area"))
		return e, true, err
	}
	return nil, false, nil
}

func (s *Server) definition(c *fiber.Ctx) error {
	e, _, err := s.engineFromQuery(c)
	if err != nil {
		return s.errEngine(c, err)
	}
	if e == nil {
		return errBadRequest(c, "either def or both from and to are required")
	}
	return c.JSON(e.Info())
}

type crsResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Definition string    `json:"definition"`
	AxisOrder  string    `json:"axis_order"`
	Area       string    `json:"area"`
	Shifts     []string  `json:"shifts,omitempty"`
	Bounds     []float64 `json:"bounds"`
}

func (s *Server) listCRS(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"codes": s.registry.Codes()})
}

func (s *Server) getCRS(c *fiber.Ctx) error {
	crs, err := s.registry.Resolve(c.Params("id"))
	if err != nil {
		return newError(c, fiber.StatusNotFound, geoproj.ErrorKind(err), err.Error())
	}
	resp := crsResponse{
		ID:         crs.ID,
		Name:       crs.Name,
		Definition: crs.Definition,
		AxisOrder:  crs.AxisOrder.String(),
		Area:       crs.Area.String(),
		Bounds:     []float64{crs.Area.West, crs.Area.South, crs.Area.East, crs.Area.North},
	}
	for _, v := range crs.Shifts {
		resp.Shifts = append(resp.Shifts, v.Name)
	}
	return c.JSON(resp)
}

// preview renders the graticule of a projection over an area given in
// degrees, world by default. CRS pair engines need a geographic source.
func (s *Server) preview(c *fiber.Ctx) error {
	e, degrees, err := s.engineFromQuery(c)
	if err != nil {
		return s.errEngine(c, err)
	}
	if e == nil {
		return errBadRequest(c, "either def or both from and to are required")
	}

	area := coord.World
	if a := c.Query("area"); a != "" {
		if area, err = coord.ParseArea(a); err != nil {
			return errBadRequest(c, err.Error())
		}
	}
	enc, err := s.encoder(c.Query("format"))
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	width := c.QueryInt("width", s.cfg.Preview.Width)
	height := c.QueryInt("height", s.cfg.Preview.Height)
	if width <= 0 || height <= 0 || width > maxPreviewSize || height > maxPreviewSize {
		return errBadRequest(c, fmt.Sprintf("preview size %dx%d is out of range", width, height))
	}

	bounds, err := preview.Extent(e, area, degrees, 64)
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	img, err := preview.Render(c.UserContext(), e, preview.Config{
		Width:       width,
		Height:      height,
		Bounds:      bounds,
		Degrees:     degrees,
		Concurrency: s.cfg.Workers,
	})
	if err != nil {
		return err
	}
	defer preview.PutRGBA(img)

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, enc.ContentType())
	return c.Send(buf.Bytes())
}
