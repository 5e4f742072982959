package kernels

import (
	"strings"
	"testing"

	"github.com/samcharles93/gantry/pkg/gemm"
)

func TestRegistryFindAndList(t *testing.T) {
	t.Parallel()

	specs := List()
	if len(specs) == 0 {
		t.Fatal("registry is empty")
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name()] {
			t.Fatalf("duplicate specialization %s", s.Name())
		}
		seen[s.Name()] = true

		found, ok := Find(s.Name())
		if !ok || found.Name() != s.Name() {
			t.Fatalf("Find(%s) did not return the listed specialization", s.Name())
		}
	}
	if _, ok := Find("sgemm_zz_1x1x1"); ok {
		t.Fatal("Find returned an unregistered specialization")
	}
}

func defaultArgs(a, b gemm.Layout, split int) *gemm.Arguments {
	return &gemm.Arguments{
		Problem:      gemm.ProblemShape{M: 16, N: 16, K: 16},
		A:            gemm.MatrixView{LD: 16, Layout: a},
		B:            gemm.MatrixView{LD: 16, Layout: b},
		CDest:        gemm.MatrixView{LD: 16, Layout: gemm.RowMajor},
		Epilogue:     gemm.IdentityEpilogue(),
		SplitKSlices: split,
	}
}

func TestDefaultSelectsFirstFit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b  gemm.Layout
		split int
		want  string
	}{
		{gemm.RowMajor, gemm.RowMajor, 1, "sgemm_nn_32x32x16"},
		{gemm.RowMajor, gemm.ColMajor, 1, "sgemm_nt_32x32x16"},
		{gemm.ColMajor, gemm.RowMajor, 1, "sgemm_tn_32x32x16"},
		{gemm.ColMajor, gemm.ColMajor, 1, "sgemm_tt_32x32x16"},
		{gemm.RowMajor, gemm.RowMajor, 4, "sgemm_splitk_nn_32x32x16"},
		{gemm.ColMajor, gemm.ColMajor, 2, "sgemm_splitk_tt_32x32x16"},
	}
	for _, tc := range cases {
		spec, err := Default(defaultArgs(tc.a, tc.b, tc.split))
		if err != nil {
			t.Fatalf("%s/%s split=%d: %v", tc.a, tc.b, tc.split, err)
		}
		if spec.Name() != tc.want {
			t.Fatalf("%s/%s split=%d: got %s, want %s", tc.a, tc.b, tc.split, spec.Name(), tc.want)
		}
	}
}

func TestDefaultReportsUnservableRecord(t *testing.T) {
	t.Parallel()

	args := defaultArgs(gemm.RowMajor, gemm.RowMajor, 1)
	args.CDest.Layout = gemm.ColMajor

	if _, err := Default(args); err == nil {
		t.Fatal("no specialization serves column-major C; Default should fail")
	} else if !strings.Contains(err.Error(), "no specialization") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestSpecializationNaming(t *testing.T) {
	t.Parallel()

	spec := newSimtSpec(gemm.ColMajor, gemm.RowMajor, DefaultTileConfig(), true)
	if got, want := spec.Name(), "sgemm_splitk_tn_32x32x16"; got != want {
		t.Fatalf("name: got %s, want %s", got, want)
	}
	if spec.LayoutA() != gemm.ColMajor || spec.LayoutB() != gemm.RowMajor || spec.LayoutC() != gemm.RowMajor {
		t.Fatal("layout accessors disagree with construction")
	}

	// Tile sizes clamp to the supported range instead of failing.
	clamped := newSimtSpec(gemm.RowMajor, gemm.RowMajor, TileConfig{M: 1024, N: 0, K: 16}, false)
	if got, want := clamped.Name(), "sgemm_nn_64x1x16"; got != want {
		t.Fatalf("clamped name: got %s, want %s", got, want)
	}
}
