package lgr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mdobak/go-xerrors"
	"github.com/natefinch/lumberjack"
)

// Logger is the process-wide logger. It starts as a pretty info logger on
// stdout and is replaced by Configure once the configuration is loaded.
var Logger = New(os.Stdout, "pretty", slog.LevelInfo)

// Configure rebuilds Logger. When file is not empty, records are also
// written to a rotated log file.
func Configure(format, level, file string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if file != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7, // days
			Compress:   true,
		})
	}

	Logger = New(w, format, lvl)
	slog.SetDefault(Logger)
	return nil
}

func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &opts))
	case "tint":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:       level,
			TimeFormat:  time.Kitchen,
			ReplaceAttr: replaceAttr,
		}))
	default:
		return slog.New(newPrettyHandler(w, opts))
	}
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

type prettyHandler struct {
	slog.Handler
	l      *log.Logger
	attrs  []groupedAttr
	groups []string
}

// groupedAttr is an attr bound by WithAttrs under the groups open at the time.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func newPrettyHandler(w io.Writer, opts slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		Handler: slog.NewJSONHandler(w, &opts),
		l:       log.New(w, "", 0),
	}
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	for _, ga := range h.attrs {
		put(fields, ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		put(fields, h.groups, a)
		return true
	})

	var body string
	if len(fields) > 0 {
		b, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
		body = string(b)
	}

	timeStr := r.Time.Format("[15:04:05.000]")
	msg := color.CyanString(r.Message)

	h.l.Println(timeStr, level, msg, color.WhiteString(body))
	return nil
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, groupedAttr{groups: h.groups, attr: a})
	}
	return &prettyHandler{
		Handler: h.Handler.WithAttrs(attrs),
		l:       h.l,
		attrs:   merged,
		groups:  h.groups,
	}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &prettyHandler{
		Handler: h.Handler.WithGroup(name),
		l:       h.l,
		attrs:   h.attrs,
		groups:  append(slices.Clip(h.groups), name),
	}
}

// put stores a under its group path, creating nested maps as needed.
func put(fields map[string]interface{}, groups []string, a slog.Attr) {
	a = replaceAttr(groups, a)
	for _, g := range groups {
		sub, ok := fields[g].(map[string]interface{})
		if !ok {
			sub = map[string]interface{}{}
			fields[g] = sub
		}
		fields = sub
	}
	fields[a.Key] = resolve(a.Value)
}

// resolve turns group values into maps so they survive JSON indentation.
func resolve(v slog.Value) interface{} {
	if v.Kind() != slog.KindGroup {
		return v.Any()
	}
	m := map[string]interface{}{}
	for _, a := range v.Group() {
		m[a.Key] = resolve(a.Value)
	}
	return m
}

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindAny {
		if err, ok := a.Value.Any().(error); ok {
			a.Value = fmtErr(err)
		}
	}
	return a
}

func marshalStack(err error) []stackFrame {
	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return nil
	}

	frames := trace.Frames()
	s := make([]stackFrame, len(frames))
	for i, v := range frames {
		s[i] = stackFrame{
			Source: filepath.Join(filepath.Base(filepath.Dir(v.File)), filepath.Base(v.File)),
			Func:   filepath.Base(v.Function),
			Line:   v.Line,
		}
	}
	return s
}

func fmtErr(err error) slog.Value {
	var groupValues []slog.Attr
	groupValues = append(groupValues, slog.String("msg", err.Error()))

	if frames := marshalStack(err); frames != nil {
		groupValues = append(groupValues, slog.Any("trace", frames))
	}

	return slog.GroupValue(groupValues...)
}
