package cache

import "github.com/khaledhikmat/dfd-go/model"

// IService remembers analysis reports by the SHA-256 of the uploaded bytes so
// a re-upload of the same video skips decoding and inference.
type IService interface {
	Get(checksum string) (model.AnalysisReport, bool)
	Set(checksum string, report model.AnalysisReport)
	Len() int
}
