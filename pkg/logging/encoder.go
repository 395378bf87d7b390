package logging

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// FlatEncoder writes every entry as a single-level JSON object. Fields attached
// with Logger.With are kept by the embedded JSON encoder and merged in as well.
type FlatEncoder struct {
	zapcore.Encoder
	config  zapcore.EncoderConfig
	context []zapcore.Field
}

// NewFlatEncoder creates a new flat JSON encoder
func NewFlatEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	return &FlatEncoder{
		Encoder: zapcore.NewJSONEncoder(config),
		config:  config,
	}
}

// AddString keeps With(...) fields so they reach EncodeEntry.
func (e *FlatEncoder) AddString(key, value string) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.StringType, String: value})
}

func (e *FlatEncoder) AddInt64(key string, value int64) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Int64Type, Integer: value})
}

func (e *FlatEncoder) AddBool(key string, value bool) {
	var i int64
	if value {
		i = 1
	}
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.BoolType, Integer: i})
}

func (e *FlatEncoder) AddFloat64(key string, value float64) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Float64Type, Integer: int64(math.Float64bits(value))})
}

func (e *FlatEncoder) AddFloat32(key string, value float32) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.Float32Type, Integer: int64(math.Float32bits(value))})
}

func (e *FlatEncoder) AddDuration(key string, value time.Duration) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.DurationType, Integer: int64(value)})
}

// EncodeEntry encodes a log entry
func (e *FlatEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	logObj := map[string]interface{}{
		"timestamp": entry.Time.UTC().Format(time.RFC3339Nano),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}
	if entry.LoggerName != "" {
		logObj["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		logObj["caller"] = entry.Caller.TrimmedPath()
	}
	if entry.Stack != "" {
		logObj["stack"] = entry.Stack
	}

	all := make([]zapcore.Field, 0, len(e.context)+len(fields))
	all = append(all, e.context...)
	all = append(all, fields...)
	for _, field := range all {
		logObj[field.Key] = fieldValue(field)
	}

	buf := bufferPool.Get()
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(logObj); err != nil {
		buf.Free()
		return nil, err
	}
	return buf, nil
}

func fieldValue(field zapcore.Field) interface{} {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return field.Integer
	case zapcore.Float64Type:
		return jsonFloat(math.Float64frombits(uint64(field.Integer)))
	case zapcore.Float32Type:
		return jsonFloat(float64(math.Float32frombits(uint32(field.Integer))))
	case zapcore.BoolType:
		return field.Integer == 1
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case zapcore.TimeType:
		if loc, ok := field.Interface.(*time.Location); ok {
			return time.Unix(0, field.Integer).In(loc).Format(time.RFC3339Nano)
		}
		return time.Unix(0, field.Integer).UTC().Format(time.RFC3339Nano)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok && err != nil {
			return err.Error()
		}
		return nil
	case zapcore.StringerType:
		if s, ok := field.Interface.(interface{ String() string }); ok {
			return s.String()
		}
		return field.Interface
	default:
		if field.Interface != nil {
			return field.Interface
		}
		return field.Integer
	}
}

// jsonFloat keeps NaN and infinities encodable
func jsonFloat(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return f
}

// Clone creates a copy of the encoder
func (e *FlatEncoder) Clone() zapcore.Encoder {
	ctx := make([]zapcore.Field, len(e.context))
	copy(ctx, e.context)
	return &FlatEncoder{
		Encoder: e.Encoder.Clone(),
		config:  e.config,
		context: ctx,
	}
}
