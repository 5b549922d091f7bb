package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/pipeline"
	"github.com/khaledhikmat/dfd-go/service/lgr"
	"github.com/khaledhikmat/dfd-go/service/storage"
)

// Multipart parts beyond this are spooled to temporary files.
const multipartMemory = 32 << 20

type analyzeResponse struct {
	Prediction         string              `json:"prediction"`
	Confidence         float64             `json:"confidence"`
	FramesAnalyzed     int                 `json:"frames_analyzed"`
	DeepfakeFrameCount int                 `json:"deepfake_frame_count"`
	Details            []model.FrameResult `json:"details"`
	VideoURL           string              `json:"video_url"`
}

func newAnalyzeResponse(report model.AnalysisReport, video storage.StoredVideo) analyzeResponse {
	return analyzeResponse{
		Prediction:         report.Prediction(),
		Confidence:         report.Confidence,
		FramesAnalyzed:     report.FramesAnalyzed,
		DeepfakeFrameCount: report.DeepfakeFrameCount,
		Details:            report.FrameDetails,
		VideoURL:           video.URL,
	}
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.CfgSvc.GetMaxUploadBytes())

	file, header, err := s.upload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeTooLarge,
				fmt.Sprintf("File exceeds the %d byte upload limit", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	defer file.Close()
	defer r.MultipartForm.RemoveAll()

	video, err := s.StorageSvc.Save(r.Context(), file, header.Filename)
	if err != nil {
		s.publishError("api_analyze_save", err, header.Filename)
		writeError(w, http.StatusInternalServerError, CodeStorage, "Error saving file: "+err.Error())
		return
	}

	lgr.Logger.Info("video uploaded",
		slog.String("original", header.Filename),
		slog.String("stored", video.Name),
		slog.Int64("size", video.Size),
	)

	if report, ok := s.CacheSvc.Get(video.Checksum); ok {
		pipeline.Publish(s.StatsStream, model.AnalysisStats{
			Video:          video.Name,
			FramesRead:     report.FramesRead,
			FramesAnalyzed: report.FramesAnalyzed,
			FramesSkipped:  report.FramesSkipped,
			Prediction:     report.Prediction(),
			Confidence:     report.Confidence,
			Cached:         true,
			Timestamp:      time.Now().Unix(),
		})
		writeJSON(w, http.StatusOK, newAnalyzeResponse(report, video))
		return
	}

	ctx := r.Context()
	if timeout := s.CfgSvc.GetAnalysisTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := s.Analyzer.Analyze(ctx, video.Path)
	if err != nil {
		s.publishError("api_analyze", err, video.Name)
		// the client never learns the URL of a failed upload
		if rmErr := s.StorageSvc.Remove(video.Name); rmErr != nil {
			lgr.Logger.Warn("failed to remove upload", slog.String("video", video.Name), slog.Any("error", rmErr))
		}
		code := CodeAnalysis
		if errors.Is(err, context.DeadlineExceeded) {
			code = CodeTimeout
		}
		writeError(w, http.StatusInternalServerError, code, "Error processing video: "+err.Error())
		return
	}

	s.CacheSvc.Set(video.Checksum, report)
	writeJSON(w, http.StatusOK, newAnalyzeResponse(report, video))
}

// upload validates the multipart request and returns the video part. Nothing
// is written to the uploads folder before it succeeds.
func (s *Server) upload(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, validationError("Expected a multipart/form-data body")
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
		return nil, nil, validationError("No file provided")
	}

	if header.Filename == "" {
		file.Close()
		r.MultipartForm.RemoveAll()
		return nil, nil, validationError("No file selected")
	}

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "video/") {
		file.Close()
		r.MultipartForm.RemoveAll()
		return nil, nil, validationError("File must be a video")
	}

	return file, header, nil
}

// validationError is a client mistake reported verbatim with a 400.
type validationError string

func (e validationError) Error() string {
	return string(e)
}

func (e validationError) Is(target error) bool {
	return target == model.ErrValidation
}

func (s *Server) publishError(component string, err error, video string) {
	pipeline.Publish(s.ErrorStream, model.GenError(component, err, map[string]interface{}{
		"video": video,
	}, "error analyzing upload"))
}
