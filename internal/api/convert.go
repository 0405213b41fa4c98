package api

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kolkov/launcher/internal/service"
)

func resultStruct(r service.Result) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"module":     structpb.NewStringValue(r.Module),
		"outcome":    structpb.NewStringValue(r.Outcome),
		"message":    structpb.NewStringValue(r.Message),
		"error":      structpb.NewStringValue(r.Error),
		"pid":        structpb.NewNumberValue(float64(r.PID)),
		"elapsed_ms": structpb.NewNumberValue(float64(r.ElapsedMS)),
		"ready":      structpb.NewBoolValue(r.Ready),
		"ok":         structpb.NewBoolValue(r.OK),
	}}
}

func resultsStruct(rs []service.Result) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(rs))
	for _, r := range rs {
		values = append(values, structpb.NewStructValue(resultStruct(r)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"results": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func moduleStruct(m service.Module) *structpb.Struct {
	command := make([]*structpb.Value, 0, len(m.Command))
	for _, arg := range m.Command {
		command = append(command, structpb.NewStringValue(arg))
	}
	startedAt := ""
	if !m.StartedAt.IsZero() {
		startedAt = m.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"name":       structpb.NewStringValue(m.Name),
		"state":      structpb.NewStringValue(m.State),
		"pid":        structpb.NewNumberValue(float64(m.PID)),
		"instance":   structpb.NewStringValue(m.Instance),
		"started_at": structpb.NewStringValue(startedAt),
		"command":    structpb.NewListValue(&structpb.ListValue{Values: command}),
		"exit_error": structpb.NewStringValue(m.ExitError),
	}}
}

func modulesStruct(ms []service.Module) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(ms))
	for _, m := range ms {
		values = append(values, structpb.NewStructValue(moduleStruct(m)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"modules": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func resultFromStruct(s *structpb.Struct) service.Result {
	f := s.GetFields()
	return service.Result{
		Module:    f["module"].GetStringValue(),
		Outcome:   f["outcome"].GetStringValue(),
		Message:   f["message"].GetStringValue(),
		Error:     f["error"].GetStringValue(),
		PID:       int(f["pid"].GetNumberValue()),
		ElapsedMS: int64(f["elapsed_ms"].GetNumberValue()),
		Ready:     f["ready"].GetBoolValue(),
		OK:        f["ok"].GetBoolValue(),
	}
}

func resultsFromStruct(s *structpb.Struct) []service.Result {
	values := s.GetFields()["results"].GetListValue().GetValues()
	out := make([]service.Result, 0, len(values))
	for _, v := range values {
		out = append(out, resultFromStruct(v.GetStructValue()))
	}
	return out
}

func modulesFromStruct(s *structpb.Struct) []service.Module {
	values := s.GetFields()["modules"].GetListValue().GetValues()
	out := make([]service.Module, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		m := service.Module{
			Name:      f["name"].GetStringValue(),
			State:     f["state"].GetStringValue(),
			PID:       int(f["pid"].GetNumberValue()),
			Instance:  f["instance"].GetStringValue(),
			ExitError: f["exit_error"].GetStringValue(),
		}
		if ts := f["started_at"].GetStringValue(); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				m.StartedAt = t
			}
		}
		for _, arg := range f["command"].GetListValue().GetValues() {
			m.Command = append(m.Command, arg.GetStringValue())
		}
		out = append(out, m)
	}
	return out
}
