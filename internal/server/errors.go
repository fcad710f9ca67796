package server

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/pspoerri/geoproj"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, invalid_parameter, latitude_out_of_range, ...
	Message   string `json:"message"` // Human-readable message
	Index     *int   `json:"index,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errEngine maps a construction or conversion error to a response.
// Construction problems are the client's fault (400); points the engine
// cannot convert are 422 and carry the failing index.
func (s *Server) errEngine(c *fiber.Ctx, err error) error {
	kind := geoproj.ErrorKind(err)
	s.metrics.ConversionErrors.WithLabelValues(kind).Inc()

	status := fiber.StatusBadRequest
	if errors.Is(err, geoproj.ErrProjection) || errors.Is(err, geoproj.ErrConversion) {
		status = fiber.StatusUnprocessableEntity
	}
	if kind == "internal" {
		status = fiber.StatusInternalServerError
	}

	reqID, _ := c.Locals("requestid").(string)
	body := APIError{
		Status:    status,
		Code:      kind,
		Message:   err.Error(),
		RequestID: reqID,
	}
	var be *geoproj.BatchError
	if errors.As(err, &be) {
		idx := be.Index
		body.Index = &idx
	}
	return c.Status(status).JSON(body)
}
