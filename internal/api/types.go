// Package api exposes the launch layer over HTTP: submit a GEMM launch,
// fetch past launches, and list the registered kernel specializations.
package api

// LaunchRequest is the body of POST /v1/launches. Operand contents are
// generated deterministically from Seed, so a launch is reproducible from its
// request alone. Alpha defaults to 1 when omitted.
type LaunchRequest struct {
	M int `json:"m"`
	N int `json:"n"`
	K int `json:"k"`

	LayoutA string `json:"layout_a,omitempty"`
	LayoutB string `json:"layout_b,omitempty"`

	Alpha      *float32 `json:"alpha,omitempty"`
	Beta       float32  `json:"beta,omitempty"`
	Activation string   `json:"activation,omitempty"`
	Bias       bool     `json:"bias,omitempty"`

	AccumulateC  bool `json:"accumulate_c,omitempty"`
	SplitKSlices int  `json:"split_k,omitempty"`

	// Kernel pins a specialization by name; empty selects first-fit.
	Kernel string `json:"kernel,omitempty"`

	Seed int64 `json:"seed,omitempty"`
}

// Launch describes one submitted launch and its observed outcome.
type Launch struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`

	Kernel  string `json:"kernel"`
	M       int    `json:"m"`
	N       int    `json:"n"`
	K       int    `json:"k"`
	SplitK  int    `json:"split_k"`
	LayoutA string `json:"layout_a"`
	LayoutB string `json:"layout_b"`

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`

	DurationMS float64 `json:"duration_ms"`
	GFlops     float64 `json:"gflops"`
	Checksum   float64 `json:"checksum"`
}

// KernelInfo is one registry entry in GET /v1/kernels.
type KernelInfo struct {
	Name    string `json:"name"`
	LayoutA string `json:"layout_a"`
	LayoutB string `json:"layout_b"`
	LayoutC string `json:"layout_c"`
	SplitK  bool   `json:"split_k"`
}

// ResponseError is the error envelope returned by every failing endpoint.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
