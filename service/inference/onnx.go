package inference

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/config"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

type onnxService struct {
	prep Preprocessor
	// WARNING: a gocv.Net is not thread-safe, so each one is checked out of
	// the pool for the duration of a forward pass.
	pool      chan *gocv.Net
	nets      []*gocv.Net
	closeOnce sync.Once
}

func NewONNX(cfgsvc config.IService) (IService, error) {
	params := cfgsvc.GetModelParameters()

	if _, err := os.Stat(params.Path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrModelLoad, params.Path, err)
	}

	svc := &onnxService{
		prep: Preprocessor{
			Size:   image.Pt(params.InputWidth, params.InputHeight),
			Layout: params.InputLayout,
		},
		pool: make(chan *gocv.Net, params.Workers),
	}

	for i := 0; i < params.Workers; i++ {
		net := gocv.ReadNet(params.Path, "")
		if net.Empty() {
			net.Close()
			svc.Close()
			return nil, fmt.Errorf("%w: worker %d: could not read %s", model.ErrModelLoad, i, params.Path)
		}

		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			net.Close()
			svc.Close()
			return nil, fmt.Errorf("%w: setting backend: %w", model.ErrModelLoad, err)
		}

		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			net.Close()
			svc.Close()
			return nil, fmt.Errorf("%w: setting target: %w", model.ErrModelLoad, err)
		}

		svc.nets = append(svc.nets, &net)
		svc.pool <- &net
	}

	lgr.Logger.Info("deepfake model loaded",
		slog.String("model", params.Path),
		slog.Int("workers", params.Workers),
		slog.String("layout", params.InputLayout),
		slog.Int("width", params.InputWidth),
		slog.Int("height", params.InputHeight),
		slog.String("openCV", gocv.Version()),
	)

	return svc, nil
}

func (svc *onnxService) Score(frame gocv.Mat) (float32, error) {
	blob, err := svc.prep.Blob(frame)
	if err != nil {
		return 0, err
	}
	defer blob.Close()

	net, ok := <-svc.pool
	if !ok {
		return 0, fmt.Errorf("%w: model is closed", model.ErrClassification)
	}
	defer func() { svc.pool <- net }()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	return probability(output)
}

// probability reads P(fake) from the network output: a single sigmoid unit,
// or a two-way softmax whose second class is fake.
func probability(output gocv.Mat) (float32, error) {
	if output.Empty() {
		return 0, fmt.Errorf("%w: empty network output", model.ErrClassification)
	}

	switch output.Total() {
	case 1:
		return output.GetFloatAt(0, 0), nil
	case 2:
		data, err := output.DataPtrFloat32()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", model.ErrClassification, err)
		}
		return data[1], nil
	default:
		return 0, fmt.Errorf("%w: unexpected output size %v", model.ErrClassification, output.Size())
	}
}

func (svc *onnxService) InputSize() image.Point {
	return svc.prep.Size
}

// Close waits for in-flight forward passes to hand their nets back, then
// releases them. Score fails with ErrClassification afterwards.
func (svc *onnxService) Close() error {
	svc.closeOnce.Do(func() {
		for range svc.nets {
			net := <-svc.pool
			net.Close()
		}
		close(svc.pool)
		svc.nets = nil
	})
	return nil
}
