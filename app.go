package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/store"
	"github.com/chazu/kerf/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

var errNoStore = errors.New("app: no model store configured")

// App ties the scripting engine, a geometry kernel and the optional model
// store together. Both the CLI and the HTTP server drive it.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	store  *store.Store
}

// MeshData is the JSON-serializable mesh format returned to clients.
type MeshData struct {
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	PartName  string    `json:"partName"`
	Color     string    `json:"color"`
	Triangles int       `json:"triangles"`
	Volume    float64   `json:"volume"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating one script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	parts []tessellate.Part
}

// Totals sums the part count, triangle count and volume of the result.
func (r EvalResult) Totals() (parts, triangles int, volume float64) {
	for _, m := range r.Meshes {
		triangles += m.Triangles
		volume += m.Volume
	}
	return len(r.Meshes), triangles, volume
}

// NewApp creates an App with the bsp kernel, default settings and no store.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: bsp.New(0),
	}
}

// NewAppWithConfig creates an App from cfg. st may be nil when models are
// not persisted.
func NewAppWithConfig(cfg *config.Config, st *store.Store) *App {
	return &App{
		engine: engine.NewEngineWithTimeout(cfg.Engine.EvalTimeout),
		kernel: newKernel(cfg.CSG),
		store:  st,
	}
}

func newKernel(cfg config.CSGConfig) kernel.Kernel {
	if cfg.Kernel == config.KernelSDF {
		return sdfx.New(cfg.MeshCells)
	}
	return bsp.New(cfg.Epsilon)
}

// volume prefers the kernel's own measure over the mesh estimate. Mesh
// winding is backend-specific, so the estimate is unsigned.
func (a *App) volume(s kernel.Solid, m *kernel.Mesh) float64 {
	if ms, ok := a.kernel.(kernel.Measurer); ok {
		return ms.Volume(s)
	}
	return math.Abs(m.Volume())
}

// Evaluate runs source through the engine and the kernel. Mistakes in the
// script are reported in the result's Errors; the returned error is set only
// for fatal failures such as a timeout or a superseded evaluation.
func (a *App) Evaluate(ctx context.Context, source string) (EvalResult, error) {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the source into a design graph.
	res, err := a.engine.EvaluateContext(ctx, source)
	if err != nil {
		log.Printf("[EVAL] fatal error: %v", err)
		return result, err
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
		})
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result, nil
	}

	// Step 2: Build one solid per part.
	parts, err := tessellate.Evaluate(ctx, res.Graph, a.kernel)
	if err != nil {
		log.Printf("[EVAL] geometry error: %v", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		result.Errors = append(result.Errors, EvalErrorData{Message: "geometry failed: " + err.Error()})
		return result, nil
	}

	// Step 3: Mesh and measure each part.
	for i, p := range parts {
		m, err := a.kernel.ToMesh(p.Solid)
		if err != nil {
			result.Errors = append(result.Errors, EvalErrorData{
				Message: fmt.Sprintf("meshing %s failed: %v", p.Name, err),
			})
			return result, nil
		}
		result.Meshes = append(result.Meshes, meshData(m, p.Name, colorPalette[i%len(colorPalette)], a.volume(p.Solid, m)))
	}
	result.parts = parts
	return result, nil
}

func meshData(m *kernel.Mesh, name, color string, volume float64) MeshData {
	return MeshData{
		Vertices:  m.Vertices,
		Normals:   m.Normals,
		Indices:   m.Indices,
		PartName:  name,
		Color:     color,
		Triangles: m.TriangleCount(),
		Volume:    volume,
	}
}

// WriteSTL writes every part of a successful result to one binary STL file.
func (a *App) WriteSTL(result EvalResult, path string) error {
	ex, ok := a.kernel.(kernel.Exporter)
	if !ok {
		return fmt.Errorf("app: kernel %T cannot export STL", a.kernel)
	}
	solids := make([]kernel.Solid, len(result.parts))
	for i, p := range result.parts {
		solids[i] = p.Solid
	}
	return ex.WriteSTL(path, solids...)
}

// SaveModel evaluates source and, when it has no errors, stores it under
// name with its measurements. The result is returned either way.
func (a *App) SaveModel(ctx context.Context, name, source string) (*store.Model, EvalResult, error) {
	if a.store == nil {
		return nil, EvalResult{}, errNoStore
	}
	result, err := a.Evaluate(ctx, source)
	if err != nil || len(result.Errors) > 0 {
		return nil, result, err
	}

	m := &store.Model{Name: name, Source: source}
	m.Parts, m.Triangles, m.Volume = result.Totals()
	if err := a.store.Save(ctx, m); err != nil {
		return nil, result, err
	}
	log.Printf("[MODELS] saved %q as %s (%d parts)", name, m.ID, m.Parts)
	return m, result, nil
}
