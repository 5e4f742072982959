package api

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/gantry/internal/kernels"
	"github.com/samcharles93/gantry/pkg/gemm"
)

type Server struct {
	store   *LaunchStore
	service *LaunchService
}

func NewServer(store *LaunchStore, service *LaunchService) *Server {
	return &Server{store: store, service: service}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/launches", s.handleCreateLaunch)
	e.GET("/v1/launches", s.handleListLaunches)
	e.GET("/v1/launches/:id", s.handleGetLaunch)
	e.GET("/v1/kernels", s.handleListKernels)
}

func (s *Server) handleCreateLaunch(c *echo.Context) error {
	var req LaunchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return writeBadRequest(c, "invalid JSON body: "+err.Error())
	}

	launch, err := s.service.Run(&req)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	s.store.Save(launch)
	return c.JSON(http.StatusOK, launch)
}

func (s *Server) handleListLaunches(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   s.store.List(),
	})
}

func (s *Server) handleGetLaunch(c *echo.Context) error {
	id := c.Param("id")
	launch, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "no launch with id "+id)
	}
	return c.JSON(http.StatusOK, launch)
}

func (s *Server) handleListKernels(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   KernelList(),
	})
}

// KernelList snapshots the registry as transport records.
func KernelList() []KernelInfo {
	specs := kernels.List()
	out := make([]KernelInfo, 0, len(specs))
	for _, spec := range specs {
		out = append(out, KernelInfo{
			Name:    spec.Name(),
			LayoutA: spec.LayoutA().String(),
			LayoutB: spec.LayoutB().String(),
			LayoutC: spec.LayoutC().String(),
			SplitK:  supportsSplitK(spec),
		})
	}
	return out
}

// supportsSplitK probes whether a specialization accepts a split factor above
// one, without initializing anything.
func supportsSplitK(spec gemm.Specialization) bool {
	args := &gemm.Arguments{
		Problem:      gemm.ProblemShape{M: 2, N: 2, K: 2},
		A:            gemm.MatrixView{LD: 2, Layout: spec.LayoutA()},
		B:            gemm.MatrixView{LD: 2, Layout: spec.LayoutB()},
		CDest:        gemm.MatrixView{LD: 2, Layout: spec.LayoutC()},
		Epilogue:     gemm.IdentityEpilogue(),
		SplitKSlices: 2,
	}
	return spec.CanImplement(args) == gemm.StatusSuccess
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}
