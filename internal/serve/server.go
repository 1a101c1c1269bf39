// Package serve exposes a trained network over HTTP.
package serve

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
	"github.com/FlavioCFOliveira/matnet/internal/net"
)

// Server serves inference requests against a single network. Requests are
// serialised because layers cache their last input.
type Server struct {
	ID     string
	Router *gin.Engine

	mu      sync.Mutex
	network *net.Network
	history []float64
}

// MatrixJSON is the wire form of a matrix: row-major data with its shape.
type MatrixJSON struct {
	Rows int       `json:"rows" binding:"required,min=1"`
	Cols int       `json:"cols" binding:"required,min=1"`
	Data []float64 `json:"data" binding:"required"`
}

type shapeJSON struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// ModelInfo describes the served network.
type ModelInfo struct {
	ID           string      `json:"id"`
	Input        shapeJSON   `json:"input"`
	Shapes       []shapeJSON `json:"shapes"`
	Layers       []string    `json:"layers"`
	Params       int         `json:"params"`
	LearningRate float64     `json:"learning_rate"`
}

// NewServer creates a server for n. history is the per-epoch training loss
// reported by GET /history.
func NewServer(n *net.Network, history []float64) *Server {
	s := &Server{
		ID:      uuid.New().String(),
		Router:  gin.Default(),
		network: n,
		history: append([]float64(nil), history...),
	}
	s.Router.GET("/model", ModelHandler(s))
	s.Router.GET("/history", HistoryHandler(s))
	s.Router.POST("/predict", PredictHandler(s))
	return s
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	fmt.Printf("serving model %s on %s\n", s.ID, addr)
	return s.Router.Run(addr)
}

func toShapeJSON(sh matrix.Shape) shapeJSON {
	return shapeJSON{Rows: sh.Rows, Cols: sh.Cols}
}

// Info returns a description of the served network.
func (s *Server) Info() ModelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := ModelInfo{
		ID:           s.ID,
		Input:        toShapeJSON(s.network.InputShape()),
		Params:       s.network.NumParams(),
		LearningRate: s.network.LearningRate(),
	}
	for _, sh := range s.network.Shapes()[1:] {
		info.Shapes = append(info.Shapes, toShapeJSON(sh))
	}
	for _, l := range s.network.Layers() {
		info.Layers = append(info.Layers, layer.Describe(l))
	}
	return info
}

// Predict runs the network on x.
func (s *Server) Predict(x *matrix.Matrix) (*matrix.Matrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.network.Predict(x)
}

func ModelHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Info())
	}
}

func HistoryHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": s.ID, "loss": s.history})
	}
}

func PredictHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MatrixJSON
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		x, err := matrix.FromFlat(req.Data, req.Rows, req.Cols)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		out, err := s.Predict(x)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, MatrixJSON{Rows: out.Rows(), Cols: out.Cols(), Data: out.Data()})
	}
}

func statusFor(err error) int {
	if errors.Is(err, matrix.ErrLengthMismatch) || errors.Is(err, matrix.ErrShapeMismatch) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
