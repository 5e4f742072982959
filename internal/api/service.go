package api

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/samcharles93/gantry/internal/kernels"
	"github.com/samcharles93/gantry/internal/logger"
	"github.com/samcharles93/gantry/pkg/device"
	"github.com/samcharles93/gantry/pkg/gemm"
)

const defaultArenaBytes = 256 << 20

// LaunchService owns the device and stream the HTTP surface launches on.
// Launches are serialized: each one has exclusive use of its operand and
// workspace buffers for the duration of the call, which is the discipline the
// launch layer's shared-resource contract expects.
type LaunchService struct {
	log logger.Logger

	mu     sync.Mutex
	dev    *device.Device
	stream *device.Stream
}

func NewLaunchService(log logger.Logger, arenaBytes int64) (*LaunchService, error) {
	if arenaBytes <= 0 {
		arenaBytes = defaultArenaBytes
	}
	dev, err := device.New(arenaBytes)
	if err != nil {
		return nil, fmt.Errorf("launch service device: %w", err)
	}
	return &LaunchService{
		log:    log,
		dev:    dev,
		stream: device.NewStream(dev),
	}, nil
}

func (s *LaunchService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.stream.Destroy()
	if e := s.dev.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

// Run executes one launch request to completion. A request the launch layer
// rejects as invalid is returned as an error; a launch that was accepted but
// failed at submission or on the device produces a Launch record with status
// "failed".
func (s *LaunchService) Run(req *LaunchRequest) (Launch, error) {
	layoutA, err := gemm.ParseLayout(orDefault(req.LayoutA, "row"))
	if err != nil {
		return Launch{}, err
	}
	layoutB, err := gemm.ParseLayout(orDefault(req.LayoutB, "row"))
	if err != nil {
		return Launch{}, err
	}
	act, err := gemm.ParseActivation(req.Activation)
	if err != nil {
		return Launch{}, err
	}

	alpha := float32(1)
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	split := req.SplitKSlices
	if split < 1 {
		split = 1
	}
	p := gemm.ProblemShape{M: req.M, N: req.N, K: req.K}
	if st := p.Check(); st != gemm.StatusSuccess {
		return Launch{}, fmt.Errorf("invalid problem shape %dx%dx%d", req.M, req.N, req.K)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	aBuf, err := s.dev.Alloc(int64(p.M) * int64(p.K) * 4)
	if err != nil {
		return Launch{}, err
	}
	defer s.dev.Free(aBuf)
	bBuf, err := s.dev.Alloc(int64(p.K) * int64(p.N) * 4)
	if err != nil {
		return Launch{}, err
	}
	defer s.dev.Free(bBuf)
	cBuf, err := s.dev.Alloc(int64(p.M) * int64(p.N) * 4)
	if err != nil {
		return Launch{}, err
	}
	defer s.dev.Free(cBuf)

	rng := rand.New(rand.NewSource(req.Seed))
	fillRand(aBuf.Float32s(), rng)
	fillRand(bBuf.Float32s(), rng)
	if req.AccumulateC {
		fillRand(cBuf.Float32s(), rng)
	}

	epilogue := gemm.EpilogueParams{Alpha: alpha, Beta: req.Beta, Activation: act}
	if req.Bias {
		biasBuf, err := s.dev.Alloc(int64(p.N) * 4)
		if err != nil {
			return Launch{}, err
		}
		defer s.dev.Free(biasBuf)
		fillRand(biasBuf.Float32s(), rng)
		epilogue.Bias = biasBuf
	}

	lda, ldb := packedLD(layoutA, p.M, p.K), packedLD(layoutB, p.K, p.N)

	spec, err := s.selectSpec(req, p, layoutA, layoutB, epilogue, split)
	if err != nil {
		return Launch{}, err
	}
	op := gemm.NewOperation(spec)

	launchReq := gemm.LaunchRequest{
		A: aBuf, B: bBuf, C: cBuf,
		LDA: lda, LDB: ldb, LDC: p.N,
		Problem:      p,
		Epilogue:     epilogue,
		AccumulateC:  req.AccumulateC,
		SplitKSlices: split,
		Stream:       s.stream,
	}
	if need := op.WorkspaceSize(launchReq); need > 0 {
		ws, err := s.dev.Alloc(need)
		if err != nil {
			return Launch{}, err
		}
		defer s.dev.Free(ws)
		launchReq.Workspace = ws
	}

	launch := Launch{
		ID:        newLaunchID(),
		Object:    "launch",
		CreatedAt: time.Now().Unix(),
		Kernel:    spec.Name(),
		M:         p.M, N: p.N, K: p.K,
		SplitK:  split,
		LayoutA: layoutA.String(),
		LayoutB: layoutB.String(),
	}

	start := time.Now()
	err = op.Launch(launchReq)
	if err == nil {
		err = s.stream.Synchronize()
	}
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, gemm.ErrInvalidArgument) {
			return Launch{}, err
		}
		s.log.Error("launch failed", "kernel", spec.Name(), "problem", p.String(), "error", err)
		launch.Status = "failed"
		launch.Error = err.Error()
		return launch, nil
	}

	launch.Status = "completed"
	launch.DurationMS = float64(elapsed.Nanoseconds()) / 1e6
	if sec := elapsed.Seconds(); sec > 0 {
		launch.GFlops = 2 * float64(p.M) * float64(p.N) * float64(p.K) / sec / 1e9
	}
	launch.Checksum = checksum(cBuf.Float32s()[:p.M*p.N])

	s.log.Info("launch completed",
		"kernel", spec.Name(), "problem", p.String(), "split", split, "ms", launch.DurationMS)
	return launch, nil
}

func (s *LaunchService) selectSpec(req *LaunchRequest, p gemm.ProblemShape, layoutA, layoutB gemm.Layout, epilogue gemm.EpilogueParams, split int) (gemm.Specialization, error) {
	if req.Kernel != "" {
		spec, ok := kernels.Find(req.Kernel)
		if !ok {
			return nil, fmt.Errorf("unknown kernel %q", req.Kernel)
		}
		return spec, nil
	}
	args := &gemm.Arguments{
		Problem:      p,
		A:            gemm.MatrixView{LD: packedLD(layoutA, p.M, p.K), Layout: layoutA},
		B:            gemm.MatrixView{LD: packedLD(layoutB, p.K, p.N), Layout: layoutB},
		CDest:        gemm.MatrixView{LD: p.N, Layout: gemm.RowMajor},
		Epilogue:     epilogue,
		SplitKSlices: split,
	}
	return kernels.Default(args)
}

// packedLD is the leading dimension of a gap-free rows x cols matrix.
func packedLD(l gemm.Layout, rows, cols int) int {
	if l == gemm.RowMajor {
		return cols
	}
	return rows
}

func fillRand(dst []float32, rng *rand.Rand) {
	for i := range dst {
		dst[i] = (rng.Float32()*2 - 1) * 0.1
	}
}

func checksum(data []float32) float64 {
	var sum float64
	for _, v := range data {
		sum += float64(v)
	}
	return sum
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
