package inference

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/dfd-go/service/config"
)

// fakeService runs the real preprocessing but replaces the network with a
// scripted sequence of probabilities. Without a script the probability is
// the mean intensity of the normalized frame.
type fakeService struct {
	prep   Preprocessor
	mu     sync.Mutex
	script []float32
	next   int
}

func NewFake(cfgsvc config.IService, script ...float32) IService {
	params := cfgsvc.GetModelParameters()
	return &fakeService{
		prep: Preprocessor{
			Size:   image.Pt(params.InputWidth, params.InputHeight),
			Layout: params.InputLayout,
		},
		script: script,
	}
}

func (svc *fakeService) Score(frame gocv.Mat) (float32, error) {
	normalized, err := svc.prep.Normalize(frame)
	if err != nil {
		return 0, err
	}
	defer normalized.Close()

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if len(svc.script) > 0 {
		p := svc.script[svc.next%len(svc.script)]
		svc.next++
		return p, nil
	}

	mean := normalized.Mean()
	return float32((mean.Val1 + mean.Val2 + mean.Val3) / 3), nil
}

func (svc *fakeService) InputSize() image.Point {
	return svc.prep.Size
}

func (svc *fakeService) Close() error {
	return nil
}
